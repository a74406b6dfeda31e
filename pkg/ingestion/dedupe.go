// pkg/ingestion/dedupe.go
package ingestion

import (
	"encoding/binary"
	"slices"

	"github.com/zeebo/xxh3"

	"github.com/David-Botos/ddos-prep/pkg/model"
)

// DropDuplicates returns a frame with repeated rows removed, keeping the first
// occurrence of each, and the number of rows dropped. Rows are bucketed by a
// 128-bit xxh3 key and compared cell by cell inside a bucket.
func DropDuplicates(frame *model.Frame) (*model.Frame, int) {
	seen := make(map[xxh3.Uint128][]int, len(frame.Rows))
	keep := make([]int, 0, len(frame.Rows))

	for i, row := range frame.Rows {
		key := rowKey(row)
		duplicate := false
		for _, j := range seen[key] {
			if slices.Equal(frame.Rows[j], row) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[key] = append(seen[key], i)
		keep = append(keep, i)
	}

	return frame.Subset(keep), len(frame.Rows) - len(keep)
}

// rowKey hashes the cells with their lengths so ("ab","c") and ("a","bc")
// get different keys
func rowKey(row []string) xxh3.Uint128 {
	h := xxh3.New()
	var lenBuf [8]byte
	for _, cell := range row {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(cell)))
		h.Write(lenBuf[:])
		h.WriteString(cell)
	}
	return h.Sum128()
}
