package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bluecollar-chat/repositories"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key          string
	Type         string
	Timestamp    string
	Conversation string
	Sender       string
	Detail       string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer serves an HTML view over the raw key space. It is
// a development aid, never exposed beyond localhost in production.
func StartDebugServer(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// DefaultMapper renders any key without decoding the value.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	if len(parts) >= 2 {
		row.Conversation = parts[1]
	}
	return row
}

// MessageMapper decodes "msg:" values into readable rows. Keys with a
// different shape fall back to the raw view.
func MessageMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)
	if !strings.HasPrefix(key, "msg:") {
		return row
	}

	var msg repositories.DiskMessage
	if err := json.Unmarshal(val, &msg); err != nil {
		return row
	}

	row.Type = strings.ToUpper(string(msg.Payload.Kind))
	row.Timestamp = msg.At.Format(time.TimeOnly)
	row.Conversation = string(msg.Conversation)
	row.Sender = string(msg.Sender)
	row.Detail = fmt.Sprintf("#%d %s", msg.Sequence, msg.Payload.Text)
	return row
}
