package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/jddeal/go-iasi/fbf"
	"github.com/jddeal/go-iasi/l1c"
	"github.com/jddeal/go-iasi/quicklook"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

var cli struct {
	Args struct {
		Filename string
	} `positional-args:"yes" required:"yes"`
	LogLevel      string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" choice:"trace" default:"info"`
	Workers       int    `short:"w" long:"workers" description:"goroutines decoding MDRs" default:"1"`
	ShowRecords   bool   `long:"show-records" description:"dumps out the header of every record"`
	ShowMPHR      bool   `long:"show-mphr" description:"dumps out the contents of the Main Product Header"`
	ExportDir     string `long:"export" description:"writes geolocation, angles, times and radiances as flat binary files into this directory"`
	QuicklookDir  string `long:"quicklook" description:"writes IIS and cloud classification PNGs of every MDR into this directory"`
	QuicklookSize int    `long:"quicklook-size" description:"edge of the quicklook PNGs in pixels" default:"256"`
	SplitSize     int64  `long:"split-size" description:"splits the product into files of at most this many bytes"`
	SplitPattern  string `long:"split-pattern" description:"name of the split files ($F index, $SD/$ED start/end time)" default:"split_$F"`
	SplitDir      string `long:"split-dir" description:"directory of the split files" default:"."`
}

func main() {

	// parse the input args
	_, err := flags.Parse(&cli)
	if err != nil {
		os.Exit(1)
	}

	// set the logging level
	errorLevels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	logrus.SetLevel(errorLevels[cli.LogLevel])

	// decode it
	logrus.Info(color.CyanString("decoding ", cli.Args.Filename))
	product, err := l1c.Open(cli.Args.Filename, l1c.WithWorkers(cli.Workers))
	if err != nil {
		logrus.Fatal(err)
	}

	if cli.ShowRecords {
		for i, rec := range product.Records() {
			fmt.Printf("%4d %v\n", i, rec.Header)
		}
	}

	if cli.ShowMPHR {
		mphr, err := product.MPHR()
		if err != nil {
			logrus.Fatal(err)
		}
		fmt.Printf("%+v\n", *mphr)
	}

	mdrs, err := product.MDRs()
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.Infof("decoded %s MDRs", color.CyanString("%d", len(mdrs)))

	if cli.ExportDir != "" {
		if err := export(product, cli.ExportDir); err != nil {
			logrus.Fatal(err)
		}
	}

	if cli.QuicklookDir != "" {
		if err := quicklooks(mdrs, cli.QuicklookDir, cli.QuicklookSize); err != nil {
			logrus.Fatal(err)
		}
	}

	if cli.SplitSize > 0 {
		paths, err := product.Split(l1c.SplitOptions{
			Threshold:   cli.SplitSize,
			NamePattern: cli.SplitPattern,
			OutputDir:   cli.SplitDir,
		})
		if err != nil {
			logrus.Fatal(err)
		}
		for _, path := range paths {
			logrus.Info(color.GreenString("wrote %s", path))
		}
	}
}

type exportItem struct {
	name  string
	data  func() (interface{}, error)
	shape []int
}

func export(product *l1c.File, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	exports := []exportItem{
		{"iasi_latitude", func() (interface{}, error) { return product.Latitudes() }, nil},
		{"iasi_longitude", func() (interface{}, error) { return product.Longitudes() }, nil},
		{"iasi_zenith", func() (interface{}, error) { return product.ZenithAngles() }, nil},
		{"solar_zenith", func() (interface{}, error) { return product.SolarZenithAngles() }, nil},
		{"solar_azimuth", func() (interface{}, error) { return product.SolarAzimuthAngles() }, nil},
		{"observation_date_day", func() (interface{}, error) { return product.ObservationDays() }, nil},
		{"observation_date_msec", func() (interface{}, error) { return product.ObservationMsecs() }, nil},
		{"iasi_radiance", func() (interface{}, error) { return product.Radiances() }, nil},
		{"wavenumber", func() (interface{}, error) { return l1c.ChannelWavenumbers(), nil }, []int{1, l1c.SpectrumChannels}},
	}

	// AVHRR fractions only exist in version 5 products
	if mdrs, err := product.MDRs(); err == nil && len(mdrs) > 0 {
		if _, ok := mdrs[0].V5(); ok {
			exports = append(exports,
				exportItem{name: "avhrr_cloud_fraction", data: func() (interface{}, error) { return product.AvhrrCloudFractions() }},
				exportItem{name: "land_fraction", data: func() (interface{}, error) { return product.LandFractions() }},
			)
		}
	}

	bar := pb.StartNew(len(exports))
	defer bar.Finish()
	for _, e := range exports {
		data, err := e.data()
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		if _, err := fbf.Write(dir, e.name, data, e.shape...); err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		bar.Increment()
	}
	return nil
}

func quicklooks(mdrs []*l1c.MDR, dir string, size int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	bar := pb.StartNew(len(mdrs))
	defer bar.Finish()
	for i, m := range mdrs {
		iis, err := quicklook.IISImage(m, 0, size)
		if err != nil {
			return err
		}
		if err := writePNG(filepath.Join(dir, fmt.Sprintf("mdr%04d_iis.png", i)), iis); err != nil {
			return err
		}

		classes, err := quicklook.CloudClassification(m, 0, size)
		if err != nil {
			return err
		}
		if err := writePNG(filepath.Join(dir, fmt.Sprintf("mdr%04d_classes.png", i)), classes); err != nil {
			return err
		}
		bar.Increment()
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := quicklook.WritePNG(file, img); err != nil {
		return err
	}
	return file.Close()
}
