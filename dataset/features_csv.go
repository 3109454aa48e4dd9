package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rushteam/nextbasket/feature"
)

// WriteFeaturesCSV 把特征行导出成训练 CSV：
// client_id, product_id, 固定特征列…, target。
// target 列按 (client, product) 是否出现在正样本集合里打 0/1。
func WriteFeaturesCSV(path string, rows []*feature.Row, targets map[Target]bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create features csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, 0, len(feature.Columns)+3)
	header = append(header, "client_id", "product_id")
	header = append(header, feature.Columns...)
	header = append(header, "target")
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range rows {
		record[0] = row.ClientID
		record[1] = row.ProductID
		for i, col := range feature.Columns {
			record[2+i] = strconv.FormatFloat(row.Get(col), 'g', -1, 64)
		}
		target := "0"
		if targets[Target{ClientID: row.ClientID, ProductID: row.ProductID}] {
			target = "1"
		}
		record[len(record)-1] = target
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteGTCountsCSV 导出每客户 ground-truth 数量（评估归一化用）。
func WriteGTCountsCSV(path string, counts map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gt counts csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"client_id", "gt_count"}); err != nil {
		return err
	}
	for clientID, count := range counts {
		if err := w.Write([]string{clientID, strconv.Itoa(count)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
