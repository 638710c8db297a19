package summary

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/spatial"
)

const (
	SummaryFileName     = "suburb_connectivity.csv"
	FlaggedFileName     = "flagged_legs.csv"
	StopSuburbsFileName = "stop_suburbs.csv"
)

// FormatSeconds writes a nullable travel time, empty when there is none
func FormatSeconds(value *float64) string {
	if value == nil {
		return ""
	}

	return strconv.FormatFloat(math.Round(*value*100)/100, 'f', -1, 64)
}

type summaryRecord struct {
	OriginSuburb      string        `csv:"origin_suburb"`
	DestinationSuburb string        `csv:"destination_suburb"`
	DayClass          ctdf.DayClass `csv:"day_class"`
	TripCount         int           `csv:"trip_count"`
	MeanTravelTime    string        `csv:"mean_travel_time_seconds"`
	RouteCoverage     int           `csv:"route_coverage"`
	OriginCode        string        `csv:"origin_code"`
	DestinationCode   string        `csv:"destination_code"`
	MedianTravelTime  string        `csv:"median_travel_time_seconds"`
	MinTravelTime     string        `csv:"min_travel_time_seconds"`
	MaxTravelTime     string        `csv:"max_travel_time_seconds"`
	TripsPerDay       float64       `csv:"trips_per_day"`
	TransportTypes    string        `csv:"transport_types"`
}

type stopSuburbRecord struct {
	StopID    string  `csv:"stop_id"`
	StopName  string  `csv:"stop_name"`
	Latitude  float64 `csv:"stop_lat"`
	Longitude float64 `csv:"stop_lon"`
	Suburb    string  `csv:"suburb"`
	Code      string  `csv:"suburb_code"`
	Resolved  bool    `csv:"resolved"`
	Overlaps  string  `csv:"overlapping_suburbs"`
}

var recordConverters = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: (*float64)(nil),
			DstType: "",
			Fn: func(src interface{}) (interface{}, error) {
				value, _ := src.(*float64)
				return FormatSeconds(value), nil
			},
		},
		{
			SrcType: []ctdf.TransportType{},
			DstType: "",
			Fn: func(src interface{}) (interface{}, error) {
				transportTypes, _ := src.([]ctdf.TransportType)
				names := make([]string, 0, len(transportTypes))
				for _, transportType := range transportTypes {
					names = append(names, string(transportType))
				}
				return strings.Join(names, "|"), nil
			},
		},
		{
			SrcType: []string{},
			DstType: "",
			Fn: func(src interface{}) (interface{}, error) {
				values, _ := src.([]string)
				return strings.Join(values, "|"), nil
			},
		},
	},
}

func summaryRecords(rows []ctdf.WeeklySummaryRow) ([]summaryRecord, error) {
	records := make([]summaryRecord, 0, len(rows))
	for _, row := range rows {
		var record summaryRecord
		if err := copier.CopyWithOption(&record, &row, recordConverters); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func WriteSummary(writer io.Writer, rows []ctdf.WeeklySummaryRow) error {
	records, err := summaryRecords(rows)
	if err != nil {
		return err
	}

	return gocsv.Marshal(&records, writer)
}

func WriteFlagged(writer io.Writer, rows []FlaggedRow) error {
	return gocsv.Marshal(&rows, writer)
}

func WriteStopSuburbs(writer io.Writer, assignments []spatial.Assignment) error {
	records := make([]stopSuburbRecord, 0, len(assignments))
	for _, assignment := range assignments {
		var record stopSuburbRecord
		if err := copier.CopyWithOption(&record, &assignment, recordConverters); err != nil {
			return err
		}
		records = append(records, record)
	}

	return gocsv.Marshal(&records, writer)
}

// ExportFiles writes the summary, the flagged legs and the stop diagnostics
// into the directory
func ExportFiles(directory string, rows []ctdf.WeeklySummaryRow, flagged []FlaggedRow, assignments []spatial.Assignment) error {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return err
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{SummaryFileName, func(w io.Writer) error { return WriteSummary(w, rows) }},
		{FlaggedFileName, func(w io.Writer) error { return WriteFlagged(w, flagged) }},
		{StopSuburbsFileName, func(w io.Writer) error { return WriteStopSuburbs(w, assignments) }},
	}

	for _, output := range writers {
		path := filepath.Join(directory, output.name)
		if err := writeFile(path, output.write); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		log.Info().Str("file", path).Msg("Written export")
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}
