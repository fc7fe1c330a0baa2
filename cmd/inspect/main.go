// Read-only table dump of the relay's badger store. Safe to run while
// the relay holds the write lock.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"bluecollar-chat/internal"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Conversation", "Sender", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				row := internal.MessageMapper(string(item.Key()), v)
				if strings.HasPrefix(string(item.Key()), "read:") {
					row = readMarkRow(string(item.Key()), v)
				}
				table.Append([]string{
					row.Key, row.Type, row.Timestamp,
					row.Conversation, row.Sender, row.Detail,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("\n%d entries under prefix %q\n", count, *prefix)
}

// readMarkRow renders a durable read receipt. The value is empty, the
// key carries "read:{conversation}:{reader}:{message_id}" with the
// message id as a fixed-length uuid tail.
func readMarkRow(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)
	row.Type = "READ"

	rest := strings.TrimPrefix(key, "read:")
	if len(rest) < 37 {
		return row
	}
	body, messageID := rest[:len(rest)-37], rest[len(rest)-36:]
	conversation, reader, ok := strings.Cut(body, ":")
	if !ok {
		return row
	}
	row.Conversation = conversation
	row.Sender = reader
	row.Detail = fmt.Sprintf("message %s", messageID)
	return row
}
