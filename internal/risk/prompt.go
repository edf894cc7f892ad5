package risk

import "fmt"

const promptTemplate = `你是一名企业智能审批助手，请根据如下信息进行风险评估：
- 报销金额：%v
- 紧急程度：%s
- 申请人历史：%s
请判断风险等级（高/中/低），推荐审批路径，并给出简要建议。
输出格式：
风险等级: <高/中/低>
推荐路径: <审批节点>
建议: <简要说明>`

// BuildPrompt renders the evaluation prompt for a request context
func BuildPrompt(ec *EvalContext) string {
	return fmt.Sprintf(
		promptTemplate, ec.Amount, ec.Urgency, ec.ApplicantHistory,
	)
}
