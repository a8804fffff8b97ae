package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/service/exporter"
	"github.com/to404hanga/online_judge_aggregator/service/exporter/common"
	"github.com/to404hanga/pkg404/gotools/transform"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

type StreamableCSVLeaderboardExporter struct {
	log loggerv2.Logger
	db  *gorm.DB
}

var _ exporter.LeaderboardExporter = (*StreamableCSVLeaderboardExporter)(nil)

func NewStreamableCSVLeaderboardExporter(db *gorm.DB, log loggerv2.Logger) *StreamableCSVLeaderboardExporter {
	return &StreamableCSVLeaderboardExporter{
		db:  db,
		log: log,
	}
}

func (e *StreamableCSVLeaderboardExporter) Export(ctx context.Context, contestID uint64, writer io.Writer) error {
	ectx, cancel := context.WithCancel(ctx)
	defer cancel()

	batchSize := 1000
	page := 1
	rowCh := make(chan []model.ContestParticipant, 3)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)
		for {
			select {
			case <-ectx.Done():
				errCh <- ectx.Err()
				return
			default:
				participants, errGoroutine := common.FetchLeaderboard(e.db, ectx, contestID, page, batchSize)
				if errGoroutine != nil {
					errCh <- errGoroutine
					return
				}
				if len(participants) == 0 {
					return
				}
				rowCh <- participants
				page++
			}
		}
	}()

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err := e.writeHeader(csvWriter); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

	rank := 1
	var goroutineErr error
	for {
		select {
		case participants, ok := <-rowCh:
			if !ok {
				if goroutineErr != nil {
					return fmt.Errorf("sub goroutine fetch leaderboard failed: %w", goroutineErr)
				}
				return nil
			}
			if err := e.processParticipants(csvWriter, participants, &rank); err != nil {
				return fmt.Errorf("process participants failed: %w", err)
			}
		case err := <-errCh:
			if err != nil {
				goroutineErr = err
			}
		}
	}
}

// processParticipants 处理排行榜数据，将其转换为 CSV 记录
func (e *StreamableCSVLeaderboardExporter) processParticipants(csvWriter *csv.Writer, participants []model.ContestParticipant, rank *int) error {
	records := transform.SliceFromSlice(participants, func(idx int, p model.ContestParticipant) []string {
		lastSubmission := ""
		if p.LastSubmissionAt != nil {
			lastSubmission = p.LastSubmissionAt.Format("2006-01-02 15:04:05")
		}
		record := []string{
			strconv.Itoa(*rank),                      // 排名
			strconv.FormatUint(p.UserID, 10),         // 用户ID
			strconv.Itoa(p.TotalScore),               // 总分
			strconv.Itoa(p.TotalSubmissions),         // 提交次数
			lastSubmission,                           // 最后提交时间
		}
		*rank++
		return record
	})
	return csvWriter.WriteAll(records)
}

// writeHeader 写入 CSV 头部
func (e *StreamableCSVLeaderboardExporter) writeHeader(csvWriter *csv.Writer) error {
	headers := []string{
		"排名",
		"用户ID",
		"总分",
		"提交次数",
		"最后提交时间",
	}
	return csvWriter.Write(headers)
}
