package main

import (
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jddeal/go-iasi/l1c"
	"github.com/jddeal/go-iasi/quicklook"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

type server struct {
	source productSource
}

func newRouter(s *server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/products", s.listHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/{name}", s.summaryHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/{name}/records", s.recordsHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/{name}/mphr", s.mphrHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/{name}/geolocation", s.geolocationHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/{name}/mdr/{mdr}/{image:iis|classes}.png", s.quicklookHandler).Methods(http.MethodGet)
	return r
}

// httpStatus maps decode and lookup errors to a status code
func httpStatus(err error) int {
	switch {
	case errors.Is(err, errInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, errProductNotFound),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, l1c.ErrRecordNotFound),
		errors.Is(err, l1c.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, l1c.ErrTruncatedInput),
		errors.Is(err, l1c.ErrSizeMismatch),
		errors.Is(err, l1c.ErrUnknownRecordClass),
		errors.Is(err, l1c.ErrFieldParse),
		errors.Is(err, l1c.ErrInvalidEnumValue),
		errors.Is(err, l1c.ErrMissingDependency),
		errors.Is(err, l1c.ErrAmbiguousDependency),
		errors.Is(err, l1c.ErrScaleLookup),
		errors.Is(err, l1c.ErrChannelRange):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		logrus.Errorf("%s: %v", req.URL.Path, err)
	} else {
		logrus.Debugf("%s: %v", req.URL.Path, err)
	}
	http.Error(w, err.Error(), status)
}

// writePNG logs encoding failures; the status line may already be sent.
func writePNG(w http.ResponseWriter, req *http.Request, img image.Image) {
	if err := quicklook.WritePNG(w, img); err != nil {
		logrus.Errorf("%s: %v", req.URL.Path, err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	j, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(j)
}

func (s *server) load(w http.ResponseWriter, req *http.Request) (*l1c.File, bool) {
	product, err := s.source.Load(req.Context(), mux.Vars(req)["name"])
	if err != nil {
		writeError(w, req, err)
		return nil, false
	}
	return product, true
}

func (s *server) listHandler(w http.ResponseWriter, req *http.Request) {
	names, err := s.source.List(req.Context())
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, names)
}

// productSummary is the body of /products/{name}
type productSummary struct {
	Name          string           `json:"name"`
	Size          int64            `json:"size"`
	Records       int              `json:"records"`
	RecordClasses map[string]int   `json:"record_classes"`
	ProductName   string           `json:"product_name,omitempty"`
	SensingStart  *time.Time       `json:"sensing_start,omitempty"`
	SensingEnd    *time.Time       `json:"sensing_end,omitempty"`
	MDRVersion    uint8            `json:"mdr_version,omitempty"`
	Channels      int              `json:"channels,omitempty"`
	Radiance      *radianceSummary `json:"radiance,omitempty"`
}

type radianceSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

func summarizeRadiances(rows [][]float64) *radianceSummary {
	var sum float64
	var n int
	var rs *radianceSummary
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		lo, hi := floats.Min(row), floats.Max(row)
		if rs == nil {
			rs = &radianceSummary{Min: lo, Max: hi}
		}
		if lo < rs.Min {
			rs.Min = lo
		}
		if hi > rs.Max {
			rs.Max = hi
		}
		sum += floats.Sum(row)
		n += len(row)
	}
	if rs != nil {
		rs.Mean = sum / float64(n)
	}
	return rs
}

func (s *server) summaryHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := s.load(w, req)
	if !ok {
		return
	}

	summary := productSummary{
		Name:          mux.Vars(req)["name"],
		Size:          product.Size(),
		Records:       product.Len(),
		RecordClasses: map[string]int{},
	}
	for _, rec := range product.Records() {
		summary.RecordClasses[rec.Class().String()]++
	}

	if mphr, err := product.MPHR(); err == nil {
		summary.ProductName = mphr.ProductName
		if t, err := mphr.SensingStartTime(); err == nil {
			summary.SensingStart = &t
		}
		if t, err := mphr.SensingEndTime(); err == nil {
			summary.SensingEnd = &t
		}
	}

	if len(product.RecordsOfClass(l1c.ClassMDR)) > 0 {
		mdrs, err := product.MDRs()
		if err != nil {
			writeError(w, req, err)
			return
		}
		summary.MDRVersion = product.RecordsOfClass(l1c.ClassMDR)[0].Header.RecordSubclassVersion
		summary.Channels = mdrs[0].Channels()

		rows, err := product.Radiances()
		if err != nil {
			writeError(w, req, err)
			return
		}
		summary.Radiance = summarizeRadiances(rows)
	}

	writeJSON(w, summary)
}

type recordInfo struct {
	Index           int       `json:"index"`
	Class           string    `json:"class"`
	Subclass        uint8     `json:"subclass"`
	SubclassVersion uint8     `json:"subclass_version"`
	Size            uint32    `json:"size"`
	Start           time.Time `json:"start"`
	Stop            time.Time `json:"stop"`
	Interpreted     bool      `json:"interpreted"`
}

func (s *server) recordsHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := s.load(w, req)
	if !ok {
		return
	}

	infos := make([]recordInfo, product.Len())
	for i, rec := range product.Records() {
		infos[i] = recordInfo{
			Index:           i,
			Class:           rec.Class().String(),
			Subclass:        rec.Header.RecordSubclass,
			SubclassVersion: rec.Header.RecordSubclassVersion,
			Size:            rec.Header.RecordSize,
			Start:           rec.Header.RecordStartTime.Time(),
			Stop:            rec.Header.RecordStopTime.Time(),
			Interpreted:     rec.Interpreted(),
		}
	}
	writeJSON(w, infos)
}

func (s *server) mphrHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := s.load(w, req)
	if !ok {
		return
	}
	mphr, err := product.MPHR()
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, mphr)
}

type geolocation struct {
	Latitudes  []float64 `json:"latitudes"`
	Longitudes []float64 `json:"longitudes"`
}

func (s *server) geolocationHandler(w http.ResponseWriter, req *http.Request) {
	product, ok := s.load(w, req)
	if !ok {
		return
	}

	var geo geolocation
	var err error
	if geo.Latitudes, err = product.Latitudes(); err != nil {
		writeError(w, req, err)
		return
	}
	if geo.Longitudes, err = product.Longitudes(); err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, geo)
}

// queryInt reads an optional integer query parameter
func queryInt(req *http.Request, key string, def int) (int, error) {
	v := req.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *server) quicklookHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	index, err := strconv.Atoi(vars["mdr"])
	if err != nil {
		http.Error(w, "Invalid mdr", http.StatusBadRequest)
		return
	}
	scan, err := queryInt(req, "scan", 0)
	if err != nil || scan < 0 || scan >= l1c.SNOT {
		http.Error(w, "Invalid scan", http.StatusBadRequest)
		return
	}
	size, err := queryInt(req, "size", 256)
	if err != nil || size <= 0 || size > 4096 {
		http.Error(w, "Invalid size", http.StatusBadRequest)
		return
	}

	product, ok := s.load(w, req)
	if !ok {
		return
	}
	mdrs, err := product.MDRs()
	if err != nil {
		writeError(w, req, err)
		return
	}
	if index < 0 || index >= len(mdrs) {
		http.Error(w, "No such mdr", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	switch vars["image"] {
	case "iis":
		img, err := quicklook.IISImage(mdrs[index], scan, size)
		if err != nil {
			writeError(w, req, err)
			return
		}
		writePNG(w, req, img)
	case "classes":
		img, err := quicklook.CloudClassification(mdrs[index], scan, size)
		if err != nil {
			writeError(w, req, err)
			return
		}
		writePNG(w, req, img)
	}
}
