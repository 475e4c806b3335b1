// Package export writes batch scoring results to an Excel workbook.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/resume-scorer/internal/model"
)

const (
	RankingSheet  = "Ranking"
	EvidenceSheet = "Evidence"
)

// Row is one scored résumé. Err is set when scoring failed and Result is nil.
type Row struct {
	Source string
	Result *model.ScoringResult
	Err    error
}

var rankingHeaders = []string{
	"Rank", "Résumé", "Job family", "Total", "Weighted total", "Match band",
	"Skill match", "Experience match", "Stability", "Growth potential",
	"Persona tags", "Risks", "Warning", "Summary",
}

var evidenceHeaders = []string{"Résumé", "Dimension", "Action", "Quote", "Reasoning"}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

var bandColors = map[model.MatchBand]string{
	model.BandStronglyRecommend: "C6EFCE",
	model.BandRecommend:         "E2EFDA",
	model.BandBorderline:        "FFEB9C",
	model.BandWeak:              "FFC7CE",
	model.BandNotRecommend:      "FF9999",
}

// Workbook writes rows, in the given order, to path. A missing .xlsx extension is added; the
// final path is returned.
func Workbook(rows []Row, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RankingSheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(EvidenceSheet); err != nil {
		return "", err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	if err := writeRanking(f, rows, header); err != nil {
		return "", fmt.Errorf("write %s sheet: %w", RankingSheet, err)
	}
	if err := writeEvidence(f, rows, header); err != nil {
		return "", fmt.Errorf("write %s sheet: %w", EvidenceSheet, err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", path, err)
	}
	return path, nil
}

func writeRanking(f *excelize.File, rows []Row, header int) error {
	if err := writeHeader(f, RankingSheet, rankingHeaders, header); err != nil {
		return err
	}
	widths := []float64{6, 28, 14, 8, 14, 18, 12, 16, 10, 16, 40, 36, 22, 60}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(RankingSheet, col, col, w); err != nil {
			return err
		}
	}

	styles := make(map[model.MatchBand]int, len(bandColors))
	for band, color := range bandColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: thinBorder,
		})
		if err != nil {
			return err
		}
		styles[band] = id
	}

	rank := 0
	for i, r := range rows {
		line := i + 2
		var values []any
		if r.Result == nil {
			values = []any{"", r.Source, "", "", "", "", "", "", "", "", "", "", "error", errText(r.Err)}
		} else {
			rank++
			res := r.Result
			values = []any{
				rank, r.Source, string(res.JobFamily), res.Total, res.WeightedTotal, string(res.MatchBand),
				res.SkillMatch, res.ExperienceMatch, res.Stability, res.GrowthPotential,
				strings.Join(res.PersonaTags, ", "), riskList(res.Risks), string(res.WarningCode), res.SummaryShort,
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RankingSheet, cell, &values); err != nil {
			return err
		}
		if r.Result != nil {
			last, _ := excelize.CoordinatesToCellName(len(rankingHeaders), line)
			if err := f.SetCellStyle(RankingSheet, cell, last, styles[r.Result.MatchBand]); err != nil {
				return err
			}
		}
	}

	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(rankingHeaders), len(rows)+1)
		if err := f.AutoFilter(RankingSheet, "A1:"+last, nil); err != nil {
			return err
		}
	}
	return freezeHeader(f, RankingSheet)
}

func writeEvidence(f *excelize.File, rows []Row, header int) error {
	if err := writeHeader(f, EvidenceSheet, evidenceHeaders, header); err != nil {
		return err
	}
	for i, w := range []float64{28, 18, 24, 60, 60} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(EvidenceSheet, col, col, w); err != nil {
			return err
		}
	}

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	line := 2
	for _, r := range rows {
		if r.Result == nil {
			continue
		}
		for _, e := range r.Result.EvidenceChain {
			values := []any{r.Source, e.Dimension.Label(), e.ActionPhrase, e.ResumeQuote, e.Reasoning}
			cell, _ := excelize.CoordinatesToCellName(1, line)
			if err := f.SetSheetRow(EvidenceSheet, cell, &values); err != nil {
				return err
			}
			last, _ := excelize.CoordinatesToCellName(len(evidenceHeaders), line)
			if err := f.SetCellStyle(EvidenceSheet, cell, last, wrap); err != nil {
				return err
			}
			line++
		}
	}
	return freezeHeader(f, EvidenceSheet)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func riskList(risks []model.RiskItem) string {
	parts := make([]string, 0, len(risks))
	for _, r := range risks {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Kind, r.Severity))
	}
	return strings.Join(parts, "; ")
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
