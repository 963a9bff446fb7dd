// Command notifier はアカウント登録・ログインと、内部受信箱・SMSへの通知送信を提供するサーバー。
//
// サブコマンド:
//
//	notifier [serve]     APIサーバーを起動する
//	notifier worker      期限切れセッションを定期削除する
//	notifier cleanup     期限切れセッションを1回だけ削除する
//	notifier migrate     データベースマイグレーションを適用する
//	notifier healthcheck /health を確認する（Dockerヘルスチェック用）
//	notifier help        使い方を表示する
package main

import (
	"fmt"
	"os"

	// distrolessイメージにはタイムゾーンDBがないため埋め込む
	_ "time/tzdata"

	"github.com/hitoshi/notifier/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "notifier: %v\n", err)
		os.Exit(1)
	}
}
