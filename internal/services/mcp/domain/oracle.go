// Package domain defines the oracle MCP tools and their handlers.
package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oppajeom/oppajeom/internal/core/coin"
	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	"github.com/oppajeom/oppajeom/internal/core/journal"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
)

// HexagramSummary is the catalog entry returned by the tools.
type HexagramSummary struct {
	Code      string    `json:"code" jsonschema:"binary code, bottom line first"`
	Number    int       `json:"number" jsonschema:"King Wen number"`
	Name      string    `json:"name" jsonschema:"Korean name"`
	Hanja     string    `json:"hanja" jsonschema:"ideographic name"`
	Statement string    `json:"statement" jsonschema:"judgment text"`
	Lines     [6]string `json:"lines" jsonschema:"line texts, bottom first"`
}

// CastHexagramInput casts coins unless lines are given.
type CastHexagramInput struct {
	Seed  *int64 `json:"seed,omitempty" jsonschema:"optional seed to replay a cast"`
	Lines string `json:"lines,omitempty" jsonschema:"optional six digits 6-9, bottom line first"`
}

// CastHexagramResult is a resolved casting.
type CastHexagramResult struct {
	Seed        *int64           `json:"seed,omitempty" jsonschema:"seed used for a coin cast"`
	Lines       string           `json:"lines" jsonschema:"line values, bottom line first"`
	BinaryCode  string           `json:"binary_code" jsonschema:"yin/yang code, bottom line first"`
	MovingLines []int            `json:"moving_lines" jsonschema:"1-based positions of changing lines"`
	Hexagram    HexagramSummary  `json:"hexagram" jsonschema:"primary hexagram"`
	Transformed *HexagramSummary `json:"transformed,omitempty" jsonschema:"hexagram after the moving lines change"`
	ChangedName string           `json:"changed_name" jsonschema:"transformed name or the no-change label"`
}

// LookupHexagramInput selects a hexagram by code or number.
type LookupHexagramInput struct {
	Code   string `json:"code,omitempty" jsonschema:"six characters of 0 and 1, bottom line first"`
	Number int    `json:"number,omitempty" jsonschema:"King Wen number 1-64"`
}

// WeeklyFocusInput names a casting and a program week.
type WeeklyFocusInput struct {
	Lines  string `json:"lines" jsonschema:"six digits 6-9, bottom line first"`
	Week   int    `json:"week" jsonschema:"program week 1-4"`
	Locale string `json:"locale,omitempty" jsonschema:"ko-KR or en-US"`
}

// WeeklyFocusResult is the passage and theme for a week.
type WeeklyFocusResult struct {
	Week           int    `json:"week"`
	HexagramName   string `json:"hexagram_name"`
	Passage        string `json:"passage" jsonschema:"statement in week 1, focus line afterwards"`
	Position       int    `json:"position,omitempty" jsonschema:"focus line position, weeks 2-4"`
	UsedMovingLine bool   `json:"used_moving_line" jsonschema:"whether the focus line is a moving line"`
	Theme          string `json:"theme"`
}

// CastHexagramTool defines the casting tool.
func CastHexagramTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "cast_hexagram",
		Description: "Casts a hexagram with three coins per line, or resolves given line values",
	}
}

// LookupHexagramTool defines the catalog lookup tool.
func LookupHexagramTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lookup_hexagram",
		Description: "Looks up a hexagram by binary code or number",
	}
}

// WeeklyFocusTool defines the journal week tool.
func WeeklyFocusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "weekly_focus",
		Description: "Returns the passage and theme a journal week is built around",
	}
}

// CastHexagramHandler resolves a casting against c.
func CastHexagramHandler(c *catalog.Catalog) mcp.ToolHandlerFor[CastHexagramInput, CastHexagramResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CastHexagramInput) (*mcp.CallToolResult, CastHexagramResult, error) {
		var (
			h      hexagram.Hexagram
			result CastHexagramResult
		)
		if strings.TrimSpace(input.Lines) != "" {
			lines, err := service.ParseLines(input.Lines)
			if err != nil {
				return nil, CastHexagramResult{}, err
			}
			if h, err = hexagram.FromLines(lines); err != nil {
				return nil, CastHexagramResult{}, err
			}
		} else {
			caster, seed, err := casterFor(input.Seed)
			if err != nil {
				return nil, CastHexagramResult{}, fmt.Errorf("seed caster: %w", err)
			}
			h, _ = caster.CastHexagram()
			result.Seed = &seed
		}

		reading, err := hexagram.Resolve(c, h)
		if err != nil {
			return nil, CastHexagramResult{}, err
		}
		result.Lines = service.FormatLines(h.Lines())
		result.BinaryCode = h.BinaryCode()
		result.MovingLines = append([]int{}, reading.MovingLines...)
		result.Hexagram = summaryOf(reading.Record)
		if reading.TransformedRecord != nil {
			transformed := summaryOf(*reading.TransformedRecord)
			result.Transformed = &transformed
		}
		result.ChangedName = journal.ChangedName("", reading)
		return nil, result, nil
	}
}

// LookupHexagramHandler finds a record by code, or by number when no code is given.
func LookupHexagramHandler(c *catalog.Catalog) mcp.ToolHandlerFor[LookupHexagramInput, HexagramSummary] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LookupHexagramInput) (*mcp.CallToolResult, HexagramSummary, error) {
		code := strings.TrimSpace(input.Code)
		if code == "" && input.Number == 0 {
			return nil, HexagramSummary{}, fmt.Errorf("code or number is required")
		}
		var (
			rec catalog.Record
			err error
		)
		if code != "" {
			if _, err = hexagram.FromCode(code); err != nil {
				return nil, HexagramSummary{}, err
			}
			rec, err = c.Lookup(code)
		} else {
			rec, err = c.ByNumber(input.Number)
		}
		if err != nil {
			return nil, HexagramSummary{}, err
		}
		return nil, summaryOf(rec), nil
	}
}

// WeeklyFocusHandler selects the week's passage for a casting.
func WeeklyFocusHandler(c *catalog.Catalog) mcp.ToolHandlerFor[WeeklyFocusInput, WeeklyFocusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WeeklyFocusInput) (*mcp.CallToolResult, WeeklyFocusResult, error) {
		lines, err := service.ParseLines(input.Lines)
		if err != nil {
			return nil, WeeklyFocusResult{}, err
		}
		h, err := hexagram.FromLines(lines)
		if err != nil {
			return nil, WeeklyFocusResult{}, err
		}
		reading, err := hexagram.Resolve(c, h)
		if err != nil {
			return nil, WeeklyFocusResult{}, err
		}
		passage, err := journal.PassageFor(reading.Record, h, input.Week)
		if err != nil {
			return nil, WeeklyFocusResult{}, err
		}
		theme, err := journal.Theme(input.Locale, input.Week, reading)
		if err != nil {
			return nil, WeeklyFocusResult{}, err
		}
		result := WeeklyFocusResult{
			Week:         input.Week,
			HexagramName: reading.Record.DisplayName(),
			Passage:      passage.Text(),
			Theme:        theme,
		}
		if passage.Focus != nil {
			result.Position = passage.Focus.Position
			result.UsedMovingLine = passage.Focus.UsedMovingLine
		}
		return nil, result, nil
	}
}

func casterFor(seed *int64) (*coin.Caster, int64, error) {
	if seed != nil {
		return coin.NewSeeded(*seed), *seed, nil
	}
	return coin.NewRandom()
}

func summaryOf(rec catalog.Record) HexagramSummary {
	return HexagramSummary(rec)
}
