package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/normalization"
)

// ImportCSV classifies the upload by its header: a distributions table
// (ID/Type/URL, no title) or a resources table. Bad rows are skipped and
// counted, never fatal for the batch.
func (s *ingestService) ImportCSV(ctx context.Context, r io.Reader) MutationResult {
	if !s.store.Available() {
		return MutationResult{Success: false, Message: s.store.Err().Error()}
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("failed to read csv header: %v", err)}
	}
	if isDistributionCSV(header) {
		return s.importDistributionCSV(ctx, cr, header)
	}
	return s.importResourceCSV(ctx, cr, header)
}

func isDistributionCSV(header []string) bool {
	var hasID, hasURL, hasKey, hasTitle bool
	for _, c := range header {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "id":
			hasID = true
		case "url":
			hasURL = true
		case "type", "relation", "relation_key":
			hasKey = true
		}
		if canonical, ok := ResolveHeader(c); ok && canonical == "title" {
			hasTitle = true
		}
	}
	return hasID && hasURL && hasKey && !hasTitle
}

func (s *ingestService) importResourceCSV(ctx context.Context, cr *csv.Reader, header []string) MutationResult {
	colField := map[int]string{}
	refCol := -1
	idCol := -1
	for i, c := range header {
		canonical, ok := ResolveHeader(c)
		if !ok {
			continue
		}
		if canonical == "references" {
			refCol = i
			continue
		}
		colField[i] = canonical
		if canonical == "id" {
			idCol = i
		}
	}
	if idCol < 0 {
		return MutationResult{Success: false, Message: "csv has no resolvable id column"}
	}

	records := []*types.Record{}
	dists := []*types.Distribution{}
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		rec := types.NewRecord("")
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if i == refCol {
				rec.References = cell
				continue
			}
			field, ok := colField[i]
			if !ok {
				continue
			}
			if types.IsRepeatedField(field) {
				rec.SetValues(field, normalization.SplitFlat(cell))
			} else {
				rec.SetScalar(field, cell)
			}
		}
		if err := rec.Validate(); err != nil {
			s.log.Warn("skipping csv row", "error", err)
			skipped++
			continue
		}
		records = append(records, rec)
		// malformed references JSON yields zero rows for this record only
		for _, d := range normalization.ExtractDistributions(rec.References, rec.ID) {
			d := d
			dists = append(dists, &d)
		}
	}
	if len(records) == 0 {
		return MutationResult{Success: true, Message: "imported 0 records", Skipped: skipped}
	}

	ids := make([]string, 0, len(records))
	rows := make([]*types.Resource, 0, len(records))
	valueRows := []*types.ResourceValue{}
	docRows := make([]*types.SearchDocument, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		rows = append(rows, buildResourceRow(rec))
		valueRows = append(valueRows, buildValueRows(rec)...)
		docRows = append(docRows, &types.SearchDocument{ResourceID: rec.ID, Text: normalization.BuildSearchText(rec)})
	}

	// one transaction so a failed insert step cannot leave the incoming
	// ids already deleted
	err := s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.store.Repos()
		steps := []func() error{
			func() error { return repos.Resource.DeleteByIDs(ctx, tx, ids) },
			func() error { return repos.Value.DeleteByResourceIDs(ctx, tx, ids) },
			func() error { return repos.Distribution.DeleteByResourceIDs(ctx, tx, ids) },
			func() error { return repos.SearchDocument.DeleteByResourceIDs(ctx, tx, ids) },
			func() error { return repos.Resource.Create(ctx, tx, rows) },
			func() error { return repos.Value.Create(ctx, tx, valueRows) },
			func() error { return repos.Distribution.Create(ctx, tx, dists) },
			func() error { return repos.SearchDocument.Create(ctx, tx, docRows) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("csv import failed: %v", err), Skipped: skipped}
	}
	s.flush(ctx)
	return MutationResult{
		Success:  true,
		Message:  fmt.Sprintf("imported %d records", len(records)),
		Imported: len(records),
		Skipped:  skipped,
	}
}

func (s *ingestService) importDistributionCSV(ctx context.Context, cr *csv.Reader, header []string) MutationResult {
	idCol, keyCol, urlCol, labelCol := -1, -1, -1, -1
	for i, c := range header {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "id":
			idCol = i
		case "type", "relation", "relation_key":
			keyCol = i
		case "url":
			urlCol = i
		case "label":
			labelCol = i
		}
	}

	rows := []*types.Distribution{}
	idSet := map[string]bool{}
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		id := cellAt(row, idCol)
		url := cellAt(row, urlCol)
		if id == "" || url == "" {
			skipped++
			continue
		}
		d := &types.Distribution{
			ID:          uuid.New(),
			ResourceID:  id,
			RelationKey: cellAt(row, keyCol),
			URL:         url,
			Label:       cellAt(row, labelCol),
		}
		rows = append(rows, d)
		idSet[id] = true
	}
	if len(rows) == 0 {
		return MutationResult{Success: true, Message: "imported 0 distributions", Skipped: skipped}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	repos := s.store.Repos()
	if err := repos.Distribution.DeleteByResourceIDs(ctx, nil, ids); err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("distribution import failed: %v", err), Skipped: skipped}
	}
	if err := repos.Distribution.Create(ctx, nil, rows); err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("distribution import failed: %v", err), Skipped: skipped}
	}
	s.flush(ctx)
	return MutationResult{
		Success:  true,
		Message:  fmt.Sprintf("imported %d distributions", len(rows)),
		Imported: len(rows),
		Skipped:  skipped,
	}
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
