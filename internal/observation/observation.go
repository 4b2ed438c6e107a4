package observation

// Observation is the flat, normalized set of measurements pushed each cycle.
// Values are float64, int, int64 or a nested map[string]any for air quality.
type Observation map[string]any

// Keys of the base observation.
const (
	KeyTimestamp        = "ts"
	KeyTemperature      = "temperature"
	KeyDewPoint         = "dew_point"
	KeyHumidity         = "humidity"
	KeyWindSpeed        = "wind_speed"
	KeyWindDirection    = "wind_direction"
	KeyWindSpeedAvg1m   = "wind_speed_avg_1m"
	KeyWindSpeedAvg10m  = "wind_speed_avg_10m"
	KeyRainRate         = "rain_rate"
	KeySolarRadiation   = "solar_radiation"
	KeyUVIndex          = "uv_index"
	KeyPressure         = "pressure"
	KeyAbsolutePressure = "absolute_pressure"
	KeyPressureTrend    = "pressure_trend"

	KeyAirQuality        = "air_quality"
	KeyIndoorAirQuality  = "indoor_air_quality"
	KeyIndoorTemperature = "indoor_temperature"
	KeyIndoorHumidity    = "indoor_humidity"
)

// Variables returns the number of measurement keys, i.e. everything but ts.
func (o Observation) Variables() int {
	n := len(o)
	if _, ok := o[KeyTimestamp]; ok {
		n--
	}
	return n
}
