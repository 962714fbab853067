package budget

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the task-breakdown instruction. Inputs are embedded
// verbatim; departments are not checked against anything.
func BuildPrompt(task string, departments []string, currency string) string {
	return fmt.Sprintf(`You are an expert project manager with financial expertise. For this task:
1. Break into subtasks if needed
2. Assign to departments: %[1]s
3. Estimate costs in %[2]s

Return ONLY JSON with this improved structure:
{
    "main_task": "original description",
    "currency": "%[2]s",
    "assignments": [
        {
            "subtask": "description",
            "department": "dept_name",
            "instructions": "specific actions",
            "estimated_time": "hours/days",
            "estimated_budget": {
                "amount": 100,
                "breakdown": {
                    "category1": 50,
                    "category2": 50
                },
                "currency": "%[2]s"
            }
        }
    ],
    "total_budget": {
        "amount": 500,
        "breakdown": {
            "department1": 200,
            "department2": 300
        }
    }
}

Now process: "%[3]s"`, strings.Join(departments, ", "), currency, task)
}
