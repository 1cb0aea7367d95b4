// Command transcriber-stub is a local stand-in for the transcription API,
// useful for end-to-end testing without a real speech-to-text backend. It
// accepts the multipart upload the service sends and returns a fixed
// transcription.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"time"
)

type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

var (
	listenAddr = flag.String("addr", ":9000", "listen address")
	replyText  = flag.String("text", "this is a stub transcription", "transcription text to return")
	delay      = flag.Duration("delay", 200*time.Millisecond, "simulated processing time")
)

func transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	model := r.FormValue("model")
	language := r.FormValue("language")

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("🎤 transcription request: file=%s size=%d model=%s language=%s",
		header.Filename, len(audioData), model, language)

	time.Sleep(*delay)

	// 44 header bytes, then 16-bit mono samples
	duration := 0.0
	if len(audioData) > 44 {
		duration = float64(len(audioData)-44) / 2.0 / 16000.0
	}

	response := transcriptionResponse{
		Text:     *replyText,
		Language: language,
		Duration: duration,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ responded: '%s' (%.2fs audio)", response.Text, duration)
}

func main() {
	flag.Parse()

	http.HandleFunc("/transcribe", transcribeHandler)

	log.Printf("🚀 Transcriber stub listening on %s", *listenAddr)
	log.Printf("💡 Point the service at: http://localhost%s/transcribe", *listenAddr)

	if err := http.ListenAndServe(*listenAddr, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
