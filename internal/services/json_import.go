package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
)

// ImportJSON accepts either a single document or a JSON array of documents.
func (s *ingestService) ImportJSON(ctx context.Context, r io.Reader) MutationResult {
	if !s.store.Available() {
		return MutationResult{Success: false, Message: s.store.Err().Error()}
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("failed to read json body: %v", err)}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return MutationResult{Success: false, Message: "empty json body"}
	}

	docs := []json.RawMessage{}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return MutationResult{Success: false, Message: fmt.Sprintf("invalid json array: %v", err)}
		}
	} else {
		docs = append(docs, json.RawMessage(raw))
	}

	imported := 0
	skipped := 0
	for _, doc := range docs {
		rec := types.NewRecord("")
		if err := json.Unmarshal(doc, rec); err != nil {
			s.log.Warn("skipping json document", "error", err)
			skipped++
			continue
		}
		if err := rec.Validate(); err != nil {
			s.log.Warn("skipping json document", "id", rec.ID, "error", err)
			skipped++
			continue
		}
		if err := s.upsertOne(ctx, rec, nil); err != nil {
			s.log.Warn("skipping json document", "id", rec.ID, "error", err)
			skipped++
			continue
		}
		imported++
	}
	if imported > 0 {
		s.flush(ctx)
	}
	return MutationResult{
		Success:  true,
		Message:  fmt.Sprintf("imported %d records", imported),
		Imported: imported,
		Skipped:  skipped,
	}
}
