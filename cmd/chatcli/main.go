// Command chatcli is a small terminal client: log in, pick a partner, chat.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"hichat/internal/chatclient"
	"hichat/internal/models"
)

var (
	server   = flag.String("server", "http://localhost:8080", "server base URL")
	email    = flag.String("email", "", "account email")
	password = flag.String("password", "", "account password")
	signup   = flag.String("signup", "", "create an account with this full name instead of logging in")
)

func main() {
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	client := chatclient.New(*server)

	var user *models.User
	var err error
	if *signup != "" {
		user, err = client.Signup(*signup, *email, *password)
	} else {
		user, err = client.Login(*email, *password)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Logged in as %s (id %d)\n", user.FullName, user.ID)

	client.OnPresence = func(users []int) {
		fmt.Printf("\r[online: %v]\n> ", users)
	}
	if err := client.Connect(); err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	partner := pickPartner(client)
	conv, err := client.OpenConversation(partner.ID)
	if err != nil {
		log.Fatal(err)
	}
	defer conv.Close()

	for _, msg := range conv.Messages() {
		printMessage(user.ID, partner, msg)
	}

	// Live messages arrive on the subscription; reprint the tail on each one
	go func() {
		seen := len(conv.Messages())
		for {
			msgs := conv.Messages()
			for ; seen < len(msgs); seen++ {
				printMessage(user.ID, partner, msgs[seen])
			}
			time.Sleep(200 * time.Millisecond)
		}
	}()

	fmt.Printf("Chatting with %s. Type a message and press enter.\n> ", partner.FullName)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Print("> ")
			continue
		}
		if text == "/quit" {
			return
		}
		if _, err := conv.Send(text, ""); err != nil {
			fmt.Printf("[send failed: %v]\n", err)
		}
		fmt.Print("> ")
	}
}

func pickPartner(client *chatclient.Client) *models.User {
	contacts, err := client.Contacts()
	if err != nil {
		log.Fatal(err)
	}
	if len(contacts) == 0 {
		log.Fatal("no contacts yet; get someone else to sign up first")
	}

	fmt.Println("Contacts:")
	for _, c := range contacts {
		fmt.Printf("  %d  %s\n", c.ID, c.FullName)
	}
	fmt.Print("Chat with id: ")

	var id int
	if _, err := fmt.Scanln(&id); err != nil {
		log.Fatal(err)
	}
	for i := range contacts {
		if contacts[i].ID == id {
			return &contacts[i]
		}
	}
	log.Fatalf("no contact with id %d", id)
	return nil
}

func printMessage(selfID int, partner *models.User, msg chatclient.Message) {
	who := partner.FullName
	if msg.SenderID == selfID {
		who = "me"
	}
	suffix := ""
	if msg.Optimistic {
		suffix = " (sending...)"
	}
	body := msg.Text
	if body == "" && msg.Image != "" {
		body = "[image] " + msg.Image
	}
	fmt.Printf("\r[%s] %s: %s%s\n> ", msg.CreatedAt.Local().Format("15:04:05"), who, body, suffix)
}
