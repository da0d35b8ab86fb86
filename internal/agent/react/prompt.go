package react

import (
	"fmt"
	"strings"

	"compass/internal/tool"
)

const promptTemplate = `You are a helpful AI assistant with access to the following tools:
%s

Use this format:

Question: the input question
Thought: reasoning
Action: the tool to use, one of [%s]
Action Input: input for the tool
Observation: tool result
... (repeat Thought/Action/Action Input/Observation as needed)
Thought: I now know the final answer
Final Answer: the final answer to the original question

Begin!

%s`

// BuildPrompt 组装发送给模型的完整 ReAct 提示词
func BuildPrompt(transcript, toolDescriptions string) string {
	return fmt.Sprintf(promptTemplate, toolDescriptions, strings.Join(toolNames(toolDescriptions), ", "), transcript)
}

// toolNames 从 "name: description" 行中提取工具名
func toolNames(descriptions string) []string {
	var names []string
	for _, line := range strings.Split(descriptions, "\n") {
		name, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// initialFraming 问题开头；forcedTool 非空时提示模型先使用该工具
func initialFraming(query, forcedTool string, forcedInput tool.Input) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n")
	if forcedTool != "" {
		fmt.Fprintf(&b, "Use the tool %s first with Action Input: %s\n", forcedTool, forcedInput.String())
	}
	return b.String()
}

func renderAction(a Action) string {
	var b strings.Builder
	if a.Thought != "" {
		fmt.Fprintf(&b, "Thought: %s\n", a.Thought)
	}
	fmt.Fprintf(&b, "Action: %s\nAction Input: %s\n", a.Tool, a.Input.String())
	return b.String()
}

func renderObservation(obs string) string {
	return "Observation: " + obs + "\n"
}
