package service

import (
	"context"
	"time"

	"github.com/2302304/3d-tulostinvaraus/internal/repository"
)

// Overlaps 半开区间 [aStart, aEnd) 与 [bStart, bEnd) 是否相交
// 首尾相接不算重叠
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// checkSlotFree 同一打印机上不允许出现与 [start, end) 相交的活跃预约
func checkSlotFree(ctx context.Context, repo repository.ReservationRepository, printerID string, start, end time.Time, excludeID string) error {
	taken, err := repo.HasOverlap(ctx, printerID, start, end, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrTimeSlotTaken
	}
	return nil
}
