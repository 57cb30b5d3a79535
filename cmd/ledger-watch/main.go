// ledger-watch is an operator tool, not part of the HTTP API's
// transactional core: it subscribes to an XRPL websocket endpoint and
// prints EscrowCreate/EscrowFinish/EscrowCancel transactions as they
// stream by, for manual reconciliation against open bouts. The API
// itself never holds a live ledger subscription; confirmation happens
// out-of-band via the escrows/confirm and payouts/confirm endpoints.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

var escrowTxTypes = map[string]bool{
	"EscrowCreate": true,
	"EscrowFinish": true,
	"EscrowCancel": true,
}

type subscribeRequest struct {
	ID      int      `json:"id"`
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}

type transactionStreamMessage struct {
	Type        string `json:"type"`
	Validated   bool   `json:"validated"`
	Transaction struct {
		TransactionType string `json:"TransactionType"`
		Account         string `json:"Account"`
		Destination     string `json:"Destination"`
		Sequence        int64  `json:"Sequence"`
	} `json:"transaction"`
	EngineResult string `json:"engine_result"`
	Hash         string `json:"hash"`
}

func main() {
	endpoint := flag.String("endpoint", "wss://s.altnet.rippletest.net:51233", "XRPL websocket endpoint to watch")
	flag.Parse()

	log.Printf("connecting to %s", *endpoint)
	conn, _, err := websocket.DefaultDialer.Dial(*endpoint, nil)
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *endpoint, err)
	}
	defer conn.Close()

	sub := subscribeRequest{ID: 1, Command: "subscribe", Streams: []string{"transactions"}}
	if err := conn.WriteJSON(sub); err != nil {
		log.Fatalf("failed to subscribe: %v", err)
	}
	log.Println("subscribed to transaction stream, watching for escrow transactions")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan := make(chan transactionStreamMessage, 64)
	errChan := make(chan error, 1)
	go readLoop(conn, msgChan, errChan)

	for {
		select {
		case msg := <-msgChan:
			if !escrowTxTypes[msg.Transaction.TransactionType] {
				continue
			}
			log.Printf("[%s] account=%s destination=%s seq=%d validated=%v engine_result=%s hash=%s",
				msg.Transaction.TransactionType, msg.Transaction.Account, msg.Transaction.Destination,
				msg.Transaction.Sequence, msg.Validated, msg.EngineResult, msg.Hash)
		case err := <-errChan:
			log.Printf("read error, reconnect required: %v", err)
			return
		case sig := <-sigChan:
			log.Printf("received signal %v, shutting down", sig)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

func readLoop(conn *websocket.Conn, out chan<- transactionStreamMessage, errs chan<- error) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			errs <- err
			return
		}
		var msg transactionStreamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type != "transaction" {
			continue
		}
		out <- msg
	}
}
