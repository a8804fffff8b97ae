package exporter

import (
	"context"
	"io"
)

type LeaderboardExporter interface {
	Export(ctx context.Context, contestID uint64, writer io.Writer) error
}
