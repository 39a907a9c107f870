package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

const exportPageSize = 100

// ExportCSV writes every report with the given status (all when empty) for offline triage.
func (s *Service) ExportCSV(ctx context.Context, status string) ([]byte, error) {
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	headers := []string{"ID", "Created At", "Status", "Category", "City", "Title", "Latitude", "Longitude", "AI Confidence", "AI Analysis"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.ListForReview(ctx, status, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, r := range page {
			if err := writer.Write(csvRecord(&r)); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		if len(page) < exportPageSize || int64(offset+len(page)) >= total {
			break
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buffer.Bytes(), nil
}

func csvRecord(r *Report) []string {
	analysis := ""
	if r.AIAnalysis != nil {
		analysis = *r.AIAnalysis
	}
	return []string{
		r.ID.String(),
		r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		r.Status,
		r.Category,
		r.City,
		r.Title,
		formatCoordinate(r.Latitude),
		formatCoordinate(r.Longitude),
		strconv.Itoa(r.AIConfidence),
		analysis,
	}
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}
