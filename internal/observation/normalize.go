package observation

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/mywx-push/internal/station"
)

// field maps one source value of a record onto an observation key.
type field struct {
	key    string
	source string
	conv   func(float64) any
}

var issFields = []field{
	{KeyTemperature, "temp", round2},
	{KeyDewPoint, "dew_point", round2},
	{KeyHumidity, "hum", round2},
	{KeyWindSpeed, "wind_speed_last", round2},
	{KeyWindDirection, "wind_dir_last", truncate},
	{KeyWindSpeedAvg1m, "wind_speed_avg_last_1_min", round2},
	{KeyWindSpeedAvg10m, "wind_speed_avg_last_10_min", round2},
	{KeySolarRadiation, "solar_rad", round2},
	{KeyUVIndex, "uv_index", round2},
}

var barometerFields = []field{
	{KeyPressure, "bar_sea_level", round2},
	{KeyAbsolutePressure, "bar_absolute", round2},
	{KeyPressureTrend, "bar_trend", round2},
}

var airQualityFields = []field{
	{"pm_1", "pm_1", round2},
	{"pm_2p5", "pm_2p5", round2},
	{"pm_2p5_1h", "pm_2p5_last_1_hour", round2},
	{"pm_2p5_24h", "pm_2p5_last_24_hours", round2},
	{"pm_10", "pm_10", round2},
	{"pm_10_1h", "pm_10_last_1_hour", round2},
	{"pm_10_24h", "pm_10_last_24_hours", round2},
}

var indoorFields = []field{
	{KeyIndoorTemperature, "temp", round2},
	{KeyIndoorHumidity, "hum", round2},
}

// Inches of rain per tipping-bucket count, indexed by the station's rain_size.
var rainCollectorInches = map[int]float64{
	1: 0.01,
	2: 0.2 / 25.4,
	3: 0.1 / 25.4,
	4: 0.001,
}

func round2(v float64) any {
	return math.Round(v*100) / 100
}

func truncate(v float64) any {
	return int(v)
}

func apply(dst map[string]any, rec station.Record, fields []field) error {
	for _, f := range fields {
		v, err := rec.Float(f.source)
		if err != nil {
			return err
		}
		dst[f.key] = f.conv(v)
	}
	return nil
}

// Normalize builds the base observation from the primary sensor suite and
// barometric records. Every base field is required. rain_rate is converted
// from bucket counts to inches per hour before it is rounded.
func Normalize(ts time.Time, iss, bar station.Record) (Observation, error) {
	obs := Observation{KeyTimestamp: ts.Unix()}

	if err := apply(obs, iss, issFields); err != nil {
		return nil, err
	}

	rate, err := rainRate(iss)
	if err != nil {
		return nil, err
	}
	obs[KeyRainRate] = rate

	if err := apply(obs, bar, barometerFields); err != nil {
		return nil, err
	}
	return obs, nil
}

// rainRate converts the bucket-count rate into inches per hour.
func rainRate(iss station.Record) (any, error) {
	counts, err := iss.Float("rain_rate_last")
	if err != nil {
		return nil, err
	}

	size := 1
	if s, ok := iss.Values["rain_size"]; ok {
		size = int(s)
	}
	per, ok := rainCollectorInches[size]
	if !ok {
		return nil, fmt.Errorf("unknown rain collector size %d", size)
	}
	return round2(counts * per), nil
}

// AirQuality returns the particulate-matter sub-map of an air-quality record.
func AirQuality(rec station.Record) (map[string]any, error) {
	aq := make(map[string]any, len(airQualityFields))
	if err := apply(aq, rec, airQualityFields); err != nil {
		return nil, err
	}
	return aq, nil
}

// AddIndoor adds the indoor sub-map and the flat indoor temperature and humidity.
func AddIndoor(obs Observation, rec station.Record) error {
	aq, err := AirQuality(rec)
	if err != nil {
		return err
	}
	flat := make(map[string]any, len(indoorFields))
	if err := apply(flat, rec, indoorFields); err != nil {
		return err
	}
	for k, v := range flat {
		obs[k] = v
	}
	obs[KeyIndoorAirQuality] = aq
	return nil
}
