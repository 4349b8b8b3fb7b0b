package services

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/normalization"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// ExportService writes the whole catalog as a flat CSV or a zip archive of
// hydrated documents plus a portable snapshot.
type ExportService interface {
	WriteCSV(ctx context.Context, w io.Writer) error
	WriteArchive(ctx context.Context, w io.Writer) error
}

type exportService struct {
	store     *CatalogStore
	hydrator  HydrationService
	snapshots SnapshotService
	log       *logger.Logger
}

func NewExportService(store *CatalogStore, hydrator HydrationService, snapshots SnapshotService, baseLog *logger.Logger) ExportService {
	return &exportService{
		store:     store,
		hydrator:  hydrator,
		snapshots: snapshots,
		log:       baseLog.With("service", "ExportService"),
	}
}

func exportHeader() ([]string, []string) {
	fields := make([]string, 0, len(types.ScalarFields)+len(types.RepeatedFields)+1)
	fields = append(fields, types.ScalarFields...)
	fields = append(fields, types.RepeatedFields...)
	fields = append(fields, "references")
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = HeaderAlias(f)
	}
	return fields, header
}

// WriteCSV emits one row per resource with repeated fields pipe-joined and
// references folded to the legacy flat shape. An unavailable store yields a
// header-only file.
func (s *exportService) WriteCSV(ctx context.Context, w io.Writer) error {
	fields, header := exportHeader()
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if !s.store.Available() {
		s.log.Warn("exporting header-only csv", "error", s.store.Err())
		cw.Flush()
		return cw.Error()
	}

	repos := s.store.Repos()
	resources, err := repos.Resource.All(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}
	dists, err := repos.Distribution.All(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list distributions: %w", err)
	}
	distsByID := map[string][]types.Distribution{}
	for _, d := range dists {
		distsByID[d.ResourceID] = append(distsByID[d.ResourceID], *d)
	}

	row := make([]string, len(fields))
	for _, r := range resources {
		for i, f := range fields {
			if f == "references" {
				folded, _ := normalization.FoldReferencesLegacy(distsByID[r.ID])
				row[i] = folded
				continue
			}
			v, _ := r.FlatValue(f)
			row[i] = v
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteArchive emits documents/<class>/<id>.json entries plus the gzip
// snapshot under snapshot/.
func (s *exportService) WriteArchive(ctx context.Context, w io.Writer) error {
	zw := zip.NewWriter(w)
	if s.store.Available() {
		repos := s.store.Repos()
		resources, err := repos.Resource.All(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list resources: %w", err)
		}
		ids := make([]string, 0, len(resources))
		for _, r := range resources {
			ids = append(ids, r.ID)
		}
		records, err := s.hydrator.Hydrate(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to hydrate records: %w", err)
		}
		for _, rec := range records {
			class := "unclassified"
			if elems := rec.Values("resource_class"); len(elems) > 0 {
				class = elems[0]
			}
			name := fmt.Sprintf("documents/%s/%s.json", sanitizeName(class), sanitizeName(rec.ID))
			f, err := zw.Create(name)
			if err != nil {
				return err
			}
			body, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				s.log.Warn("skipping unencodable record", "id", rec.ID, "error", err)
				continue
			}
			if _, err := f.Write(body); err != nil {
				return err
			}
		}

		blob, err := s.snapshots.Serialize(ctx)
		if err != nil {
			s.log.Warn("archive written without snapshot", "error", err)
		} else {
			f, err := zw.Create("snapshot/catalog-snapshot.json.gz")
			if err != nil {
				return err
			}
			if _, err := f.Write(blob); err != nil {
				return err
			}
		}
	} else {
		s.log.Warn("exporting empty archive", "error", s.store.Err())
	}
	return zw.Close()
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
