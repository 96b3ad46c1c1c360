package evaluator

import "wisefido-sleep-alert/internal/models"

// CompareCondition 按运算符比较 value 与 threshold，不做浮点容差
// 未知运算符返回 (false, false)
func CompareCondition(value float64, op models.Operator, threshold float64) (matched bool, known bool) {
	switch op {
	case models.OpGreaterThan:
		return value > threshold, true
	case models.OpLessThan:
		return value < threshold, true
	case models.OpEqual:
		return value == threshold, true
	case models.OpGreaterThanOrEqual:
		return value >= threshold, true
	case models.OpLessThanOrEqual:
		return value <= threshold, true
	case models.OpNotEqual:
		return value != threshold, true
	default:
		return false, false
	}
}
