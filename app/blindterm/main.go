// Command blindterm is a terminal client for the blind-dating feature, mainly
// useful for poking at a running server during development.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/univeil/univeil/internal/blindclient"
	"github.com/univeil/univeil/internal/logger"
)

func main() {
	_ = godotenv.Load()

	base := os.Getenv("UNIVEIL_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	token := os.Getenv("UNIVEIL_TOKEN")
	userID := os.Getenv("UNIVEIL_USER_ID")
	if token == "" || userID == "" {
		log.Fatal("UNIVEIL_TOKEN and UNIVEIL_USER_ID are required")
	}

	ctrl := blindclient.NewController(blindclient.Config{
		API:    blindclient.NewHTTPAPI(base, token),
		UserID: userID,
		Logger: logger.New(),
		Notifier: blindclient.NotifierFunc(func(kind blindclient.NoticeKind, msg string) {
			fmt.Printf("\n[%s] %s\n> ", kind, msg)
		}),
	})
	ctx := context.Background()
	defer ctrl.Close(ctx)

	fmt.Println("commands: /join /leave /status /reveal /chat /decline /end /quit; anything else is sent as a message")

	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "/quit":
			return
		case "/join":
			if err := ctrl.JoinQueue(ctx); err != nil {
				fmt.Println("join failed:", err)
			}
		case "/leave":
			ctrl.LeaveQueue(ctx)
		case "/status":
			st := ctrl.State()
			fmt.Printf("%s session=%s countdown=%s coins=%d\n",
				st.Status, st.SessionID, st.CountdownString(), st.Coins)
			for _, m := range st.Messages {
				fmt.Printf("  %s: %s\n", m.SenderID, m.Text)
			}
			if st.PartnerProfile != nil {
				fmt.Printf("  partner: %s (%s)\n", st.PartnerProfile.DisplayName, st.PartnerProfile.Campus)
			}
		case "/reveal", "/chat", "/decline":
			if err := ctrl.RecordChoice(ctx, strings.TrimPrefix(line, "/")); err != nil {
				fmt.Println("choice failed:", err)
			}
		case "/end":
			ctrl.EndSession(ctx)
		case "":
		default:
			if err := ctrl.SendMessage(ctx, line); err != nil {
				fmt.Println("send failed:", err)
			}
		}
		fmt.Print("> ")
	}
}
