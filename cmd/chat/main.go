package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/healthchat/backend/internal/client"
	"github.com/healthchat/backend/internal/config"
	"github.com/healthchat/backend/internal/model/chat"
	"github.com/healthchat/backend/internal/model/content"
	"github.com/healthchat/backend/internal/service/ai"
	chatservice "github.com/healthchat/backend/internal/service/chat"
	"github.com/healthchat/backend/internal/service/resolver"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	server := flag.String("server", "", "后端地址 (例如 http://localhost:8080)，留空则只使用本地回答")
	timeout := flag.Duration("timeout", 30*time.Second, "单条消息的超时时间")
	useAI := flag.Bool("ai", false, "本地回答时启用生成式模型 (需要 Ark 凭证)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := content.Load(cfg.Content.File)
	if err != nil {
		log.Fatalf("内容加载失败: %v", err)
	}

	var opts resolver.Options
	if *useAI {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Fatalf("模型初始化失败: %v", err)
		}
		aiService, err := ai.NewService(ctx, chatModel, table.Disclaimer)
		if err != nil {
			log.Fatalf("AI 服务初始化失败: %v", err)
		}
		opts.Answerer = aiService
	}

	local, err := resolver.New(table, opts)
	if err != nil {
		log.Fatalf("resolver 初始化失败: %v", err)
	}

	var res chatservice.Resolver = local
	if *server != "" {
		api := client.New(*server, local)
		health := api.CheckHealth(ctx)
		log.Printf("backend %s status=%s", *server, health.Status)
		res = api
	}

	controller := chatservice.NewController(res, table.Greeting, table.ConnectionError,
		chatservice.WithListener(printEvent),
	)

	for _, msg := range controller.Messages() {
		printMessage(msg)
	}
	fmt.Println("输入问题并回车发送；/reset 重新开始，/quit 退出。")

	if err := repl(ctx, controller, *timeout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("读取输入失败: %v", err)
	}
}

func repl(ctx context.Context, controller *chatservice.Controller, timeout time.Duration) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/reset":
			controller.ResetChat()
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, timeout)
		err := controller.SendMessage(sendCtx, line)
		cancel()
		if err != nil {
			log.Printf("[WARN] 发送失败: %v", err)
		}
	}
}

func printEvent(evt chatservice.Event) {
	switch evt.Type {
	case chatservice.EventMessage:
		if evt.Message != nil && evt.Message.Sender == chat.SenderBot {
			printMessage(*evt.Message)
		}
	case chatservice.EventTyping:
		if evt.Typing {
			fmt.Println("  ...")
		}
	case chatservice.EventReset:
		fmt.Printf("-- new session %s --\n", evt.SessionID)
		if evt.Message != nil {
			printMessage(*evt.Message)
		}
	}
}

func printMessage(msg chat.Message) {
	ts := time.UnixMilli(msg.Timestamp).Format("15:04")
	fmt.Printf("[%s] %s: %s\n", ts, msg.Sender, msg.Text)
}
