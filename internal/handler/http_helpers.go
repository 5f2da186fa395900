package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitboard/internal/habit"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseDateParam(c *gin.Context, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Param(key))
	date, err := habit.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s", key)
	}
	return date, nil
}

// parseOptionalDate 解析可选日期，空字符串返回 fallback
func parseOptionalDate(raw string, fallback time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	return habit.ParseDate(trimmed)
}

// parseHabitTypesQuery 解析逗号分隔或重复出现的 types 参数；参数缺失时返回全部习惯类型
func parseHabitTypesQuery(c *gin.Context) ([]habit.HabitType, error) {
	values, present := c.GetQueryArray("types")
	if !present {
		return habit.AllTypes(), nil
	}

	types := make([]habit.HabitType, 0, len(values))
	for _, value := range values {
		for _, raw := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				continue
			}
			t, err := habit.ParseType(trimmed)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
	}
	return types, nil
}
