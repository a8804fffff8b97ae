package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/service/exporter"
	"github.com/to404hanga/online_judge_aggregator/service/exporter/common"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type StreamableXLSXLeaderboardExporter struct {
	log loggerv2.Logger
	db  *gorm.DB
}

var _ exporter.LeaderboardExporter = (*StreamableXLSXLeaderboardExporter)(nil)

func NewStreamableXLSXLeaderboardExporter(db *gorm.DB, log loggerv2.Logger) *StreamableXLSXLeaderboardExporter {
	return &StreamableXLSXLeaderboardExporter{
		db:  db,
		log: log,
	}
}

func (e *StreamableXLSXLeaderboardExporter) Export(ctx context.Context, contestID uint64, writer io.Writer) error {
	ectx, cancel := context.WithCancel(ctx)
	defer cancel()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.ErrorContext(ctx, "close excel file failed", logger.Error(err))
		}
	}()

	sheetName := "排行榜"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet failed: %w", err)
	}
	f.SetActiveSheet(index)

	if err = e.writeHeader(f, sheetName); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

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

	currentRow := 2 // 从第二行开始写入数据（第一行是表头）
	var goroutineErr error

	for {
		select {
		case participants, ok := <-rowCh:
			if !ok {
				if goroutineErr != nil {
					return fmt.Errorf("sub goroutine fetch leaderboard failed: %w", goroutineErr)
				}
				// 所有数据处理完成，写入到writer
				if err = f.Write(writer); err != nil {
					return fmt.Errorf("write excel file failed: %w", err)
				}
				return nil
			}
			if err = e.processParticipants(f, sheetName, participants, &currentRow); err != nil {
				return fmt.Errorf("process participants failed: %w", err)
			}
		case err = <-errCh:
			if err != nil {
				goroutineErr = err
			}
		}
	}
}

// processParticipants 处理排行榜数据，将其写入 Excel 文件
func (e *StreamableXLSXLeaderboardExporter) processParticipants(f *excelize.File, sheetName string, participants []model.ContestParticipant, currentRow *int) error {
	for _, p := range participants {
		lastSubmission := ""
		if p.LastSubmissionAt != nil {
			lastSubmission = p.LastSubmissionAt.Format("2006-01-02 15:04:05")
		}

		rowData := []interface{}{
			*currentRow - 1,    // 排名
			p.UserID,           // 用户ID
			p.TotalScore,       // 总分
			p.TotalSubmissions, // 提交次数
			lastSubmission,     // 最后提交时间
		}

		for col, value := range rowData {
			cell, err := excelize.CoordinatesToCellName(col+1, *currentRow)
			if err != nil {
				return fmt.Errorf("get cell name failed: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set cell value failed: %w", err)
			}
		}
		*currentRow++
	}
	return nil
}

// writeHeader 写入Excel表头
func (e *StreamableXLSXLeaderboardExporter) writeHeader(f *excelize.File, sheetName string) error {
	headers := []string{
		"排名",
		"用户ID",
		"总分",
		"提交次数",
		"最后提交时间",
	}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("get cell name failed: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("set cell value failed: %w", err)
		}
	}
	return nil
}
