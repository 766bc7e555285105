package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"strconv"
	"strings"
)

func (g *Index) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	field := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	switch strings.ToLower(f.Name) {
	case "routes.txt":
		rID := idx("route_id")
		rSN := idx("route_short_name")
		rLN := idx("route_long_name")
		rType := idx("route_type")
		rColor := idx("route_color")
		rText := idx("route_text_color")
		for _, row := range rec[1:] {
			id := field(row, rID)
			if id == "" {
				continue
			}
			route := Route{
				ID:        id,
				ShortName: field(row, rSN),
				LongName:  field(row, rLN),
				Type:      -1,
				Color:     hexColor(field(row, rColor)),
				TextColor: hexColor(field(row, rText)),
			}
			if typeInt, err := strconv.Atoi(field(row, rType)); err == nil {
				route.Type = typeInt
			}
			g.routes[id] = route
		}
	case "trips.txt":
		rID := idx("route_id")
		tID := idx("trip_id")
		for _, row := range rec[1:] {
			if trip := field(row, tID); trip != "" {
				g.tripToRoute[trip] = field(row, rID)
			}
		}
	}
	return nil
}

// hexColor turns a GTFS "RRGGBB" color into "#rrggbb". Anything else is
// dropped.
func hexColor(s string) string {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return ""
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return ""
	}
	return "#" + strings.ToLower(s)
}
