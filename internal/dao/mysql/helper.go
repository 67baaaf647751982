package mysql

import (
	"errors"
	"strings"

	"pulse_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

// toLowerPattern 规范化 LIKE 匹配输入
// 转义通配符，避免用户输入的 % 和 _ 扩大匹配范围
func toLowerPattern(query string) string {
	lower := strings.ToLower(query)
	lower = strings.ReplaceAll(lower, `\`, `\\`)
	lower = strings.ReplaceAll(lower, "%", `\%`)
	lower = strings.ReplaceAll(lower, "_", `\_`)
	return lower
}

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - 其他错误 -> CodeDBError
//
// 包装保留底层错误，errors.Is(err, gorm.ErrDuplicatedKey) 仍然成立
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}
