package gbp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Requested metric kinds. Anything else the API returns is ignored.
const (
	MetricWebsiteClicks            = "WEBSITE_CLICKS"
	MetricCallClicks               = "CALL_CLICKS"
	MetricDirectionRequests        = "BUSINESS_DIRECTION_REQUESTS"
	MetricImpressionsDesktopMaps   = "BUSINESS_IMPRESSIONS_DESKTOP_MAPS"
	MetricImpressionsDesktopSearch = "BUSINESS_IMPRESSIONS_DESKTOP_SEARCH"
	MetricImpressionsMobileMaps    = "BUSINESS_IMPRESSIONS_MOBILE_MAPS"
	MetricImpressionsMobileSearch  = "BUSINESS_IMPRESSIONS_MOBILE_SEARCH"
)

// DailyMetricKinds is the explicit set requested from the performance API.
var DailyMetricKinds = []string{
	MetricWebsiteClicks,
	MetricCallClicks,
	MetricDirectionRequests,
	MetricImpressionsDesktopMaps,
	MetricImpressionsDesktopSearch,
	MetricImpressionsMobileMaps,
	MetricImpressionsMobileSearch,
}

// SeriesEntry is one raw metric series from the performance API. The envelope
// shape varies between response variants, so entries stay duck-typed until
// normalization.
type SeriesEntry map[string]any

// DailyRecord is one calendar day's aggregated counters for one location.
// Date is a "YYYY-MM-DD" key. Actions is the sum of Calls,
// DirectionRequests and WebsiteClicks.
type DailyRecord struct {
	Date              string
	Views             int64
	Searches          int64
	Actions           int64
	Calls             int64
	DirectionRequests int64
	WebsiteClicks     int64
}

// NormalizeDailyMetrics reshapes raw metric series into one record per
// distinct calendar date. Values accumulate additively across series entries
// and points resolving to the same date; points with no resolvable date are
// dropped.
func NormalizeDailyMetrics(entries []SeriesEntry) []DailyRecord {
	acc := make(map[string]*DailyRecord)

	for _, entry := range entries {
		kind, _ := entry["dailyMetric"].(string)

		points, ok := resolvePoints(entry)
		if !ok {
			continue
		}

		for _, raw := range points {
			point, ok := raw.(map[string]any)
			if !ok {
				continue
			}

			date, ok := resolveDate(point["date"])
			if !ok {
				continue
			}

			rec := acc[date]
			if rec == nil {
				rec = &DailyRecord{Date: date}
				acc[date] = rec
			}
			addValue(rec, kind, coerceValue(point["value"]))
		}
	}

	records := make([]DailyRecord, 0, len(acc))
	for _, rec := range acc {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records
}

// pointExtractors is the ordered list of known shapes for where a series
// entry keeps its dated points. First match wins.
var pointExtractors = []func(SeriesEntry) ([]any, bool){
	// timeSeries.datedValues (current documented envelope)
	func(e SeriesEntry) ([]any, bool) {
		ts, ok := e["timeSeries"].(map[string]any)
		if !ok {
			return nil, false
		}
		dv, ok := ts["datedValues"].([]any)
		return dv, ok
	},
	// timeSeries as a bare array (observed variant)
	func(e SeriesEntry) ([]any, bool) {
		dv, ok := e["timeSeries"].([]any)
		return dv, ok
	},
	// datedValues at the entry root (observed variant)
	func(e SeriesEntry) ([]any, bool) {
		dv, ok := e["datedValues"].([]any)
		return dv, ok
	},
}

func resolvePoints(entry SeriesEntry) ([]any, bool) {
	for _, extract := range pointExtractors {
		if points, ok := extract(entry); ok {
			return points, true
		}
	}
	return nil, false
}

// resolveDate turns either a date string or a structured {year,month,day}
// object into a "YYYY-MM-DD" key.
func resolveDate(v any) (string, bool) {
	switch d := v.(type) {
	case string:
		s := d
		if i := strings.IndexAny(s, "T "); i >= 0 {
			s = s[:i]
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return "", false
		}
		return s, true
	case map[string]any:
		year := int(coerceValue(d["year"]))
		month := int(coerceValue(d["month"]))
		day := int(coerceValue(d["day"]))
		if year == 0 || month == 0 || day == 0 {
			return "", false
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
	default:
		return "", false
	}
}

func coerceValue(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

func addValue(rec *DailyRecord, kind string, value int64) {
	switch kind {
	case MetricWebsiteClicks:
		rec.WebsiteClicks += value
		rec.Actions += value
	case MetricCallClicks:
		rec.Calls += value
		rec.Actions += value
	case MetricDirectionRequests:
		rec.DirectionRequests += value
		rec.Actions += value
	case MetricImpressionsDesktopMaps,
		MetricImpressionsDesktopSearch,
		MetricImpressionsMobileMaps,
		MetricImpressionsMobileSearch:
		rec.Views += value
	}
}

// flattenSeries unwraps the known envelope variants around the series list:
// multiDailyMetricTimeSeries[].dailyMetricTimeSeries[], a top-level
// dailyMetricTimeSeries list, or a single bare entry.
func flattenSeries(payload map[string]any) []SeriesEntry {
	var entries []SeriesEntry

	appendEntry := func(v any) {
		if m, ok := v.(map[string]any); ok {
			entries = append(entries, SeriesEntry(m))
		}
	}

	if wrappers, ok := payload["multiDailyMetricTimeSeries"].([]any); ok {
		for _, w := range wrappers {
			wrapper, ok := w.(map[string]any)
			if !ok {
				continue
			}
			if inner, ok := wrapper["dailyMetricTimeSeries"].([]any); ok {
				for _, e := range inner {
					appendEntry(e)
				}
				continue
			}
			appendEntry(wrapper)
		}
		return entries
	}

	if inner, ok := payload["dailyMetricTimeSeries"].([]any); ok {
		for _, e := range inner {
			appendEntry(e)
		}
		return entries
	}

	if _, ok := payload["dailyMetric"]; ok {
		appendEntry(payload)
	}
	return entries
}
