package app

import (
	"fmt"
	"strings"
)

// Command はnotifierのサブコマンド。
type Command string

const (
	// CommandServe は通知APIサーバーを起動する。引数なしの既定値。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションを定期的に削除し続ける。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーマを最新バージョンまで適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandCleanup は期限切れセッションの削除を1回だけ実行する。
	CommandCleanup Command = "cleanup"
	// CommandHealthcheck は稼働中のサーバーの /health を確認する。
	// distrolessイメージにはcurlがないため、DockerのHEALTHCHECKから使う。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp はサブコマンドの一覧を表示する。
	CommandHelp Command = "help"
)

// commands はusageに表示する順序と説明。
var commands = []struct {
	cmd         Command
	description string
}{
	{CommandServe, "通知APIサーバーを起動する（既定）"},
	{CommandWorker, "期限切れセッションを定期的に削除する"},
	{CommandCleanup, "期限切れセッションを1回だけ削除する"},
	{CommandMigrate, "データベースマイグレーションを適用する"},
	{CommandHealthcheck, "/health を確認する（Dockerヘルスチェック用）"},
	{CommandHelp, "この一覧を表示する"},
}

// ParseCommand は先頭の引数からサブコマンドを決める。
// 引数なしや未知のサブコマンドはCommandServeとして扱い、2つ目以降の引数は無視する。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch arg := args[0]; arg {
	case "-h", "--help":
		return CommandHelp
	default:
		for _, c := range commands {
			if string(c.cmd) == arg {
				return c.cmd
			}
		}
		return CommandServe
	}
}

// Usage はサブコマンドの一覧を返す。
func Usage() string {
	var b strings.Builder
	b.WriteString("usage: notifier [command]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-12s %s\n", c.cmd, c.description)
	}
	return b.String()
}
