package santander

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString decodes a JSON value that the open-data portal publishes
// inconsistently as either a string or a number. Both forms normalize to the
// string rendering so downstream comparisons are plain string equality.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// intValue parses the field as an integer, returning 0 for empty or
// malformed values. The feed leaves optional numeric fields blank.
func (f flexString) intValue() int {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// feedEnvelope wraps every dataset response from the portal.
type feedEnvelope[R any] struct {
	Resources []R `json:"resources"`
}

// scheduleRecord is one raw row of the scheduled-timetable dataset.
type scheduleRecord struct {
	Line     flexString `json:"ayto:linea"`
	StopID   flexString `json:"ayto:idParada"`
	Clock    flexString `json:"ayto:hora"`
	StopName flexString `json:"ayto:nombreParada"`
	Trip     flexString `json:"ayto:numViaje"`
	Service  flexString `json:"ayto:servicio"`
}

// estimateRecord is one raw row of the fleet-estimate dataset.
type estimateRecord struct {
	Line       flexString `json:"ayto:etiqLinea"`
	StopID     flexString `json:"ayto:paradaId"`
	BusID      flexString `json:"dc:identifier"`
	ReportedAt flexString `json:"ayto:fechActual"`

	Destination1 flexString `json:"ayto:destino1"`
	Eta1         flexString `json:"ayto:tiempo1"`
	Distance1    flexString `json:"ayto:distancia1"`

	Destination2 flexString `json:"ayto:destino2"`
	Eta2         flexString `json:"ayto:tiempo2"`
	Distance2    flexString `json:"ayto:distancia2"`
}
