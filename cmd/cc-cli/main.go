package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cryptoconditions/cc-go/internal/ops"
)

func writeResp(w io.Writer, resp ops.Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func main() {
	var req ops.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, ops.Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}
	writeResp(os.Stdout, ops.Run(req))
}
