package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitboard/internal/habit"
	"github.com/habitboard/internal/service"
)

type policyPayload struct {
	MissTolerance *int  `json:"miss_tolerance" binding:"required"`
	Enabled       *bool `json:"enabled"`
}

// ListStreakPolicies 返回当前用户所有支持连胜的习惯的生效策略
func (a *API) ListStreakPolicies(c *gin.Context) {
	policies, err := a.policies.Policies(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取连胜策略失败")
		return
	}

	items := make([]gin.H, 0, len(policies))
	for _, t := range habit.StreakTypes() {
		policy, ok := policies[t]
		if !ok {
			policy = habit.DefaultPolicy()
		}
		items = append(items, serializePolicy(t, policy))
	}

	c.JSON(http.StatusOK, gin.H{"policies": items})
}

// UpdateStreakPolicy 保存单个习惯的缺勤容忍度与开关
func (a *API) UpdateStreakPolicy(c *gin.Context) {
	habitType, err := habit.ParseType(c.Param("type"))
	if err != nil {
		handleHabitError(c, err)
		return
	}

	var payload policyPayload
	if !bindJSON(c, &payload, "请填写缺勤容忍天数") {
		return
	}

	enabled := true
	if payload.Enabled != nil {
		enabled = *payload.Enabled
	}

	policy, err := a.policies.UpdatePolicy(currentUserID(c), habitType, service.StreakPolicyInput{
		MissTolerance: *payload.MissTolerance,
		Enabled:       enabled,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy": serializePolicy(habitType, policy)})
}

func serializePolicy(habitType habit.HabitType, policy habit.StreakPolicy) gin.H {
	return gin.H{
		"type":           habitType,
		"label":          habitType.Label(),
		"miss_tolerance": policy.MissTolerance,
		"enabled":        policy.Enabled,
	}
}
