package style

import "github.com/theoremus-urban-solutions/trajectory-tracker/utils"

// MaxZoom is the highest zoom level with its own marker size.
const MaxZoom = 16

// Category describes one vehicle type.
type Category struct {
	Name       string
	Background string
	Text       string
}

// Categories are indexed by the vehicle type of a trajectory.
var Categories = []Category{
	{Name: "Tram", Background: "#ffb400", Text: "#000000"},
	{Name: "Subway / Metro / S-Bahn", Background: "#ff5400", Text: "#ffffff"},
	{Name: "Train", Background: "#ff8080", Text: "#000000"},
	{Name: "Bus", Background: "#ea0000", Text: "#ffffff"},
	{Name: "Ferry", Background: "#3000ff", Text: "#ffffff"},
	{Name: "Cable Car", Background: "#ffb400", Text: "#000000"},
	{Name: "Gondola", Background: "#41a27b", Text: "#ffffff"},
	{Name: "Funicular", Background: "#00d237", Text: "#000000"},
	{Name: "Long distance bus", Background: "#b5b5b5", Text: "#000000"},
}

var unknownCategory = Category{Name: "Unknown", Background: "#808080", Text: "#ffffff"}

// radii[category][zoom] is the marker radius in pixels.
var radii = [][MaxZoom + 1]int{
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 3, 4, 6, 6, 7, 9, 11},
	{1, 1, 1, 1, 1, 1, 1, 1, 2, 3, 4, 5, 6, 7, 8, 11, 11},
	{1, 1, 1, 1, 1, 2, 3, 4, 4, 5, 5, 5, 7, 8, 11, 12, 12},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 3, 3, 4, 6, 7, 8},
	{1, 1, 1, 1, 1, 1, 2, 3, 4, 5, 5, 5, 7, 8, 10, 11, 11},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 3, 4, 5, 6, 7, 9, 11},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 3, 4, 5, 6, 7, 9, 11},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 3, 4, 5, 6, 7, 9, 11},
	{1, 1, 1, 1, 1, 2, 3, 3, 3, 4, 4, 5, 6, 7, 10, 11, 11},
}

// CategoryFor returns the category at index, or a grey fallback.
func CategoryFor(index int) Category {
	if index < 0 || index >= len(Categories) {
		return unknownCategory
	}
	return Categories[index]
}

// Radius returns the marker radius for a category at an integer zoom.
// Unknown categories and zooms outside the table get a radius of 1.
func Radius(category, zoom int) int {
	if category < 0 || category >= len(radii) || zoom < 0 || zoom > MaxZoom {
		return 1
	}
	return radii[category][zoom]
}

// DelayBucket is a delay severity from 0 (on time) to 4.
type DelayBucket int

var bucketColors = [...]string{"#00a00c", "#f7bf00", "#ff4a00", "#e80000", "#ed004c"}

// BucketFor classifies a rounded delay in seconds.
func BucketFor(roundedSecs float64) DelayBucket {
	switch {
	case roundedSecs >= 3600:
		return 4
	case roundedSecs >= 500:
		return 3
	case roundedSecs >= 300:
		return 2
	case roundedSecs >= 180:
		return 1
	}
	return 0
}

// Color returns the halo and text colour of the bucket.
func (b DelayBucket) Color() string {
	if b < 0 || int(b) >= len(bucketColors) {
		return bucketColors[0]
	}
	return bucketColors[b]
}

// DelayBucketOf rounds a raw delay and classifies it.
func DelayBucketOf(secs float64) DelayBucket {
	return BucketFor(utils.RoundDelay(secs).Seconds)
}
