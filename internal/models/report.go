package models

import (
	"strconv"
	"time"
)

// Decimal3 is a value rounded to 3 decimal places that always renders with exactly
// three fractional digits, e.g. 75.000.
type Decimal3 float64

func NewDecimal3(v float64) Decimal3 {
	return Decimal3(Round3(v))
}

func (d Decimal3) String() string {
	return strconv.FormatFloat(float64(d), 'f', 3, 64)
}

func (d Decimal3) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// URLStat is one finalized report row.
type URLStat struct {
	URL       string   `json:"url"`
	Count     int64    `json:"count"`
	CountPerc Decimal3 `json:"count_perc"`
	TimeSum   float64  `json:"time_sum"`
	TimePerc  Decimal3 `json:"time_perc"`
	TimeAvg   Decimal3 `json:"time_avg"`
	TimeMax   float64  `json:"time_max"`
	TimeMed   Decimal3 `json:"time_med"`
}

// UserAgentStat is one row of the user agent breakdown.
type UserAgentStat struct {
	Name      string   `json:"name"`
	Count     int64    `json:"count"`
	CountPerc Decimal3 `json:"count_perc"`
}

// Report is everything the renderer needs for one log date.
type Report struct {
	LogDate    time.Time
	Logfile    string
	Stats      []URLStat
	UserAgents []UserAgentStat
	Totals     RunTotals
}
