package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"compass/pkg/config"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], newClient(apiBaseURL()), os.Stdout, os.Stderr))
}

func run(args []string, c *resty.Client, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 0
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "compass cli %s\n", version)
	case "health":
		out, err := health(c)
		if err != nil {
			fmt.Fprintf(stderr, "健康检查失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, prettyJSON(out))
	case "config":
		return runConfig(stdout, stderr)
	case "ask":
		return runAsk(c, rest, stdout, stderr)
	case "tools":
		tools, err := listTools(c)
		if err != nil {
			fmt.Fprintf(stderr, "列出工具失败: %v\n", err)
			return 1
		}
		for _, t := range tools {
			fmt.Fprintf(stdout, "%s: %s\n", t.Name, t.Description)
		}
	case "dashboard":
		out, err := getDashboard(c)
		if err != nil {
			fmt.Fprintf(stderr, "获取 dashboard 失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, prettyJSON(out))
	case "feedback":
		return runFeedback(c, rest, stdout, stderr)
	default:
		printUsage(stderr)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: compass <command> [args]")
	fmt.Fprintln(w, "  version                     - 显示版本")
	fmt.Fprintln(w, "  health                      - 健康检查")
	fmt.Fprintln(w, "  config                      - 显示配置概要")
	fmt.Fprintln(w, "  ask [-domain d] [-source s] [-highlight] <question>")
	fmt.Fprintln(w, "                              - 提问；source 默认 All，可为 Customers/Orders/Products 或文档名")
	fmt.Fprintln(w, "  tools                       - 列出已注册工具")
	fmt.Fprintln(w, "  dashboard                   - 查询日志汇总")
	fmt.Fprintln(w, "  feedback <+1|-1> <query> <answer>")
	fmt.Fprintln(w, "                              - 记录对一次回答的评价")
}

func runConfig(stdout, stderr io.Writer) int {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "api.port=%d\n", cfg.API.Port)
	fmt.Fprintf(stdout, "api.host=%s\n", cfg.API.Host)
	fmt.Fprintf(stdout, "model.defaults.llm=%s\n", cfg.Model.Defaults.LLM)
	fmt.Fprintf(stdout, "agent.max_steps=%d\n", cfg.Agent.MaxSteps)
	fmt.Fprintf(stdout, "backends.vector.type=%s\n", cfg.Backends.Vector.Type)
	fmt.Fprintf(stdout, "telemetry.sinks=%s\n", strings.Join(cfg.Telemetry.Sinks, ","))
	return 0
}

func runAsk(c *resty.Client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	domain := fs.String("domain", "", "问题所属领域")
	source := fs.String("source", "All", "数据源：All | Customers | Orders | Products | <文档名>")
	hl := fs.Bool("highlight", false, "在答案中标记出处句")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(stderr, "Usage: compass ask [-domain d] [-source s] [-highlight] <question>")
		return 1
	}
	res, err := ask(c, askRequest{Query: question, Domain: *domain, Source: *source, Highlight: *hl})
	if err != nil {
		fmt.Fprintf(stderr, "提问失败: %v\n", err)
		return 1
	}
	printAnswer(stdout, res)
	return 0
}

func printAnswer(w io.Writer, res *askResponse) {
	answer := res.Answer
	if res.HighlightedAnswer != "" {
		answer = res.HighlightedAnswer
	}
	fmt.Fprintln(w, answer)
	if res.Degraded {
		fmt.Fprintln(w, "(reasoning stopped at the step limit)")
	}
	if len(res.SourceHighlights) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, h := range res.SourceHighlights {
			mark := ""
			if h.LowConfidence {
				mark = " [low confidence]"
			}
			fmt.Fprintf(w, "  - %q <- %q%s\n", h.Text, h.Source, mark)
		}
	}
	if len(res.ToolUsage) > 0 {
		names := make([]string, 0, len(res.ToolUsage))
		for n := range res.ToolUsage {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf("%s=%d", n, res.ToolUsage[n])
		}
		fmt.Fprintf(w, "\nTools: %s (%.2fs)\n", strings.Join(parts, ", "), res.ResponseTime)
	}
}

func runFeedback(c *resty.Client, args []string, stdout, stderr io.Writer) int {
	if len(args) < 3 {
		fmt.Fprintln(stderr, "Usage: compass feedback <+1|-1> <query> <answer>")
		return 1
	}
	rating, err := strconv.Atoi(args[0])
	if err != nil || (rating != 1 && rating != -1) {
		fmt.Fprintf(stderr, "rating 必须为 +1 或 -1，当前: %q\n", args[0])
		return 1
	}
	out, err := sendFeedback(c, args[1], strings.Join(args[2:], " "), rating)
	if err != nil {
		fmt.Fprintf(stderr, "记录反馈失败: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, prettyJSON(out))
	return 0
}
