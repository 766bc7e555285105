/*
Package gtfs loads the parts of a GTFS static feed needed to label realtime
vehicles: routes and the trips that run on them.

Load once at startup and share the index:

	index, err := gtfs.LoadFile("gtfs.zip")
	if err != nil {
	    log.Fatal(err)
	}
	route, ok := index.RouteForTrip("trip_123")

Route types use the GTFS enum, including the extended 100-1700 range.
Category folds them onto the nine basic vehicle categories.
*/
package gtfs
