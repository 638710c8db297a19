// Package gtfs loads the GTFS schedule tables the connectivity analysis needs
// and validates them into a typed Feed.
package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	StopsFile         = "stops.txt"
	RoutesFile        = "routes.txt"
	TripsFile         = "trips.txt"
	StopTimesFile     = "stop_times.txt"
	CalendarFile      = "calendar.txt"
	CalendarDatesFile = "calendar_dates.txt"
)

var requiredFiles = []string{StopsFile, RoutesFile, TripsFile, StopTimesFile}

// Schedule holds the raw rows of a GTFS schedule archive
type Schedule struct {
	Stops         []StopRow
	Routes        []RouteRow
	Trips         []TripRow
	StopTimes     []StopTimeRow
	Calendars     []CalendarRow
	CalendarDates []CalendarDateRow
}

func init() {
	// Allow us to ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(transform.NewReader(in, unicode.BOMOverride(encoding.Nop.NewDecoder())))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		return r
	})
}

func (gtfs *Schedule) ParseFile(reader io.Reader) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	return gtfs.ParseArchive(body)
}

func (gtfs *Schedule) ParseArchive(body []byte) error {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("failed to open GTFS archive: %w", err)
	}

	fileMap := map[string]interface{}{
		StopsFile:         &gtfs.Stops,
		RoutesFile:        &gtfs.Routes,
		TripsFile:         &gtfs.Trips,
		StopTimesFile:     &gtfs.StopTimes,
		CalendarFile:      &gtfs.Calendars,
		CalendarDatesFile: &gtfs.CalendarDates,
	}
	loaded := map[string]bool{}

	for _, zipFile := range archive.File {
		if zipFile.FileInfo().IsDir() {
			continue
		}

		// Some publishers nest the tables inside a folder
		fileName := path.Base(zipFile.Name)

		destination, exists := fileMap[fileName]
		if !exists {
			log.Debug().Str("file", zipFile.Name).Msg("Ignoring gtfs file")
			continue
		}
		if loaded[fileName] {
			return &MalformedInputError{File: fileName, Err: fmt.Errorf("archive contains %s more than once", fileName)}
		}

		log.Info().Str("file", fileName).Msg("Loading file")
		if err := unmarshalZipFile(zipFile, destination); err != nil {
			return &MalformedInputError{File: fileName, Err: err}
		}
		loaded[fileName] = true
	}

	for _, fileName := range requiredFiles {
		if !loaded[fileName] {
			return &MalformedInputError{File: fileName, Err: fmt.Errorf("required table missing from archive")}
		}
	}
	if !loaded[CalendarFile] && !loaded[CalendarDatesFile] {
		log.Warn().Msg("Archive has neither calendar.txt nor calendar_dates.txt, no service will run")
	}

	log.Info().
		Int("stops", len(gtfs.Stops)).
		Int("routes", len(gtfs.Routes)).
		Int("trips", len(gtfs.Trips)).
		Int("stop_times", len(gtfs.StopTimes)).
		Int("calendars", len(gtfs.Calendars)).
		Int("calendar_dates", len(gtfs.CalendarDates)).
		Msg("Loaded schedule")

	return nil
}

func unmarshalZipFile(zipFile *zip.File, destination interface{}) error {
	fileReader, err := zipFile.Open()
	if err != nil {
		return err
	}
	defer fileReader.Close()

	content, err := io.ReadAll(fileReader)
	if err != nil {
		return err
	}

	// A table with no header at all is treated like an absent optional table
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}

	return gocsv.UnmarshalBytes(content, destination)
}
