package main

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
)

type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

// queryParams flattens a request query, lowercasing keys and trimming values.
func queryParams(r *http.Request) map[string]string {
	m := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			m[strings.ToLower(k)] = strings.TrimSpace(v[0])
		}
	}
	return m
}

func parseFloat(params map[string]string, key string, def float64) (float64, error) {
	s := params[key]
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &QueryError{Msg: key + " must be a finite number."}
	}
	return v, nil
}

type viewQuery struct {
	Lon, Lat, Zoom float64
}

func parseViewQuery(params map[string]string, cur viewQuery) (viewQuery, error) {
	var q viewQuery
	var err error
	if q.Lon, err = parseFloat(params, "lon", cur.Lon); err != nil {
		return q, err
	}
	if q.Lat, err = parseFloat(params, "lat", cur.Lat); err != nil {
		return q, err
	}
	if q.Zoom, err = parseFloat(params, "zoom", cur.Zoom); err != nil {
		return q, err
	}
	if q.Lon < -180 || q.Lon > 180 {
		return q, &QueryError{Msg: "lon must be within [-180, 180]."}
	}
	if q.Lat < -85 || q.Lat > 85 {
		return q, &QueryError{Msg: "lat must be within [-85, 85]."}
	}
	if q.Zoom < 0 || q.Zoom > 28 {
		return q, &QueryError{Msg: "zoom must be within [0, 28]."}
	}
	return q, nil
}

func parsePixel(params map[string]string) (float64, float64, error) {
	if params["x"] == "" || params["y"] == "" {
		return 0, 0, &QueryError{Msg: "You must provide x and y."}
	}
	x, err := parseFloat(params, "x", 0)
	if err != nil {
		return 0, 0, err
	}
	y, err := parseFloat(params, "y", 0)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func buildErrorPayload(msg string) []byte {
	type apiErr struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	var e apiErr
	e.Error.Description = msg
	b, _ := json.Marshal(e)
	return b
}
