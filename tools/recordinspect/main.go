package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hmkj6688-bit/TrRainGame/internal/infrastructure/storage"
)

func main() {
	if len(os.Args) < 3 {
		printHelp()
		return
	}

	archiver := storage.NewFileArchiver(".")
	rec, err := archiver.Load(os.Args[2])
	if err != nil {
		fmt.Printf("Failed to load record: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "info":
		fmt.Printf("Record:   %s\n", rec.ID)
		fmt.Printf("Game:     %s\n", rec.GameID)
		fmt.Printf("Started:  %s\n", time.Unix(rec.StartUnix, 0).Format(time.RFC3339))
		if rec.Complete() {
			fmt.Printf("Ended:    %s\n", time.Unix(rec.EndUnix, 0).Format(time.RFC3339))
		} else {
			fmt.Println("Ended:    (incomplete)")
		}
		fmt.Printf("Winner:   %s\n", rec.Winner)
		fmt.Printf("Turns:    %d\n", len(rec.Turns))
		fmt.Printf("Players:  %d\n", len(rec.Stats))
	case "turns":
		for _, t := range rec.Turns {
			mark := ""
			if t.Hash != nil {
				mark = fmt.Sprintf("  hash=%016x", *t.Hash)
			}
			fmt.Printf("turn %6d  intents=%d%s\n", t.Number, len(t.Intents), mark)
		}
	case "hashes":
		// Только сэмплированные ходы; по ним и ловится десинк.
		for _, t := range rec.Turns {
			if t.Hash != nil {
				fmt.Printf("%d %016x\n", t.Number, *t.Hash)
			}
		}
	case "intents":
		for _, t := range rec.Turns {
			for _, in := range t.Intents {
				fmt.Printf("turn %6d  %-18s client=%s payload=%s\n", t.Number, in.Kind, in.ClientID, string(in.Payload))
			}
		}
	default:
		printHelp()
	}
}

func printHelp() {
	fmt.Println(`Record Inspector - просмотр .trgr записей партий
Commands:
  info <file>     - заголовок записи (игра, время, победитель)
  turns <file>    - список ходов с количеством интентов
  hashes <file>   - сэмплированные отпечатки состояния
  intents <file>  - все интенты по ходам`)
}
