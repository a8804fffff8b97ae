package factory

import (
	"sync"

	"github.com/to404hanga/online_judge_aggregator/service/exporter"
	"github.com/to404hanga/online_judge_aggregator/service/exporter/csv"
	"github.com/to404hanga/online_judge_aggregator/service/exporter/xlsx"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

type ExporterType string

const (
	CSVLeaderboardExporter  ExporterType = "csv-leaderboard"
	XLSXLeaderboardExporter ExporterType = "xlsx-leaderboard"
)

var ExporterSuffixMap = map[ExporterType]string{
	CSVLeaderboardExporter:  ".csv",
	XLSXLeaderboardExporter: ".xlsx",
}

var ExporterContentTypeMap = map[ExporterType]string{
	CSVLeaderboardExporter:  "text/csv",
	XLSXLeaderboardExporter: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type ExporterFactory struct {
	factory map[ExporterType]exporter.LeaderboardExporter
	db      *gorm.DB
	log     loggerv2.Logger
	mux     sync.RWMutex
}

func NewExporterFactory(db *gorm.DB, log loggerv2.Logger) *ExporterFactory {
	return &ExporterFactory{
		factory: make(map[ExporterType]exporter.LeaderboardExporter), // 延迟创建
		db:      db,
		log:     log,
	}
}

func (f *ExporterFactory) GetExporter(exporterType ExporterType) exporter.LeaderboardExporter {
	f.mux.RLock()
	if exp, exists := f.factory[exporterType]; exists {
		f.mux.RUnlock()
		return exp
	}
	f.mux.RUnlock()

	f.mux.Lock()
	defer f.mux.Unlock()

	// 双重检查，避免重复创建
	if exp, exists := f.factory[exporterType]; exists {
		return exp
	}

	switch exporterType {
	case CSVLeaderboardExporter:
		f.factory[CSVLeaderboardExporter] = csv.NewStreamableCSVLeaderboardExporter(f.db, f.log)
		return f.factory[CSVLeaderboardExporter]
	case XLSXLeaderboardExporter:
		f.factory[XLSXLeaderboardExporter] = xlsx.NewStreamableXLSXLeaderboardExporter(f.db, f.log)
		return f.factory[XLSXLeaderboardExporter]
	}

	return nil
}
