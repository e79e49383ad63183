package chart

// Chart kinds. They only tell clients how to draw a frame.
const (
	KindBar        = "bar"
	KindGroupedBar = "grouped_bar"
	KindLine       = "line"
	KindPie        = "pie"
	KindBox        = "box"
	KindHeatmap    = "heatmap"
)

// Defaults returns the built-in chart set.
func Defaults() []Definition {
	return []Definition{
		{
			ID:         "pollutants-by-month",
			Title:      "Pollutants above WHO guideline by city",
			Kind:       KindGroupedBar,
			Period:     "month",
			Entity:     []string{"city"},
			Reducer:    "threshold",
			Loop:       true,
			IntervalMs: 1500,
		},
		{
			ID:         "aqi-by-month",
			Title:      "Monthly AQI by city",
			Kind:       KindLine,
			Period:     "month",
			Entity:     []string{"city"},
			Reducer:    "mean",
			Field:      "aqi",
			Loop:       false,
			IntervalMs: 1000,
		},
		{
			ID:      "aqi-by-day-type",
			Title:   "AQI on weekdays and weekends",
			Kind:    KindGroupedBar,
			Period:  "all",
			Entity:  []string{"city", "day_type"},
			Reducer: "mean",
			Field:   "aqi",
		},
		{
			ID:      "aqi-heatmap",
			Title:   "AQI by year and month",
			Kind:    KindHeatmap,
			Period:  "all",
			Entity:  []string{"year", "month"},
			Reducer: "mean",
			Field:   "aqi",
		},
		{
			ID:          "aqi-by-season",
			Title:       "AQI distribution by season",
			Kind:        KindBox,
			Period:      "label",
			PeriodField: "Season",
			Reducer:     "quantile",
			Field:       "aqi",
			Loop:        true,
			IntervalMs:  2000,
		},
		{
			ID:      "aqi-by-wind-humidity",
			Title:   "AQI by wind and humidity band",
			Kind:    KindGroupedBar,
			Period:  "all",
			Entity:  []string{"wind_category", "humidity_category"},
			Reducer: "mean",
			Field:   "aqi",
		},
		{
			ID:         "aqi-share-by-month",
			Title:      "Share of mean AQI by city",
			Kind:       KindPie,
			Period:     "month",
			Entity:     []string{"city"},
			Reducer:    "mean",
			Field:      "aqi",
			Loop:       true,
			IntervalMs: 2000,
		},
	}
}
