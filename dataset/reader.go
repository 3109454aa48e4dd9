// Package dataset 负责训练语料的读取与离线索引的并行构建。
//
// 语料格式：每行是一对 tab 分隔的 JSON ClientRecord（种子历史 \t 留出历史），
// 训练/验证/测试窗口用行号区间划分。
// 摄入路径上的解析错误是致命的：宁可中止任务，也不能让坏行悄悄污染统计。
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rushteam/nextbasket/core"
)

// maxLineBytes 是单行语料的上限。大客户一年的历史能到几百 KB。
const maxLineBytes = 16 * 1024 * 1024

// ReadClientPurchases 读取语料文件的 [offset, offset+limit) 行，
// 返回种子历史与留出历史两组记录（下标对齐）。
// limit <= 0 表示读到文件尾。历史在返回前按交易时间排好序。
func ReadClientPurchases(path string, offset, limit int) ([]*core.ClientRecord, []*core.ClientRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	var (
		train, test []*core.ClientRecord
		lineNo      int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		no := lineNo
		lineNo++
		if no < offset {
			continue
		}
		if limit > 0 && no >= offset+limit {
			break
		}

		seed, holdout, err := parseLine(scanner.Text())
		if err != nil {
			return nil, nil, fmt.Errorf("corpus line %d: %w", no, err)
		}
		train = append(train, seed)
		test = append(test, holdout)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read corpus: %w", err)
	}
	return train, test, nil
}

func parseLine(line string) (*core.ClientRecord, *core.ClientRecord, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, nil, fmt.Errorf("empty line")
	}
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("expected seed\\tholdout pair")
	}

	var seed, holdout core.ClientRecord
	if err := json.Unmarshal([]byte(parts[0]), &seed); err != nil {
		return nil, nil, fmt.Errorf("parse seed record: %w", err)
	}
	if err := json.Unmarshal([]byte(parts[1]), &holdout); err != nil {
		return nil, nil, fmt.Errorf("parse holdout record: %w", err)
	}
	seed.SortHistory()
	holdout.SortHistory()
	return &seed, &holdout, nil
}
