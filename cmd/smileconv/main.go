// Command smileconv converts a document between Smile and a handful of
// other self-describing wire formats, going through smile.Value as the
// common intermediate representation.
package main

import (
	"flag"
	"fmt"
	"io"
	stdslog "log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/smile"
	"github.com/unkn0wn-root/smile/codec"
	logruslog "github.com/unkn0wn-root/smile/log/logrus"
	slogadapter "github.com/unkn0wn-root/smile/log/slog"
	zaplog "github.com/unkn0wn-root/smile/log/zap"
)

func main() {
	from := flag.String("from", "smile", "input format: smile, json, cbor, msgpack, protobuf")
	to := flag.String("to", "json", "output format: smile, json, cbor, msgpack, protobuf")
	logKind := flag.String("log", "", "diagnostic logger: zap, logrus, slog, or empty for none")
	flag.Parse()

	logger := buildLogger(*logKind)

	in, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smileconv: read stdin: %s\n", err)
		os.Exit(1)
	}

	fromCodec, err := resolveCodec(*from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smileconv: %s\n", err)
		os.Exit(1)
	}
	toCodec, err := resolveCodec(*to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smileconv: %s\n", err)
		os.Exit(1)
	}

	v, err := fromCodec.Decode(in)
	if err != nil {
		logger.Error("smileconv.decode_failed", smile.Fields{"from": *from, "err": err.Error()})
		fmt.Fprintf(os.Stderr, "smileconv: decode %s: %s\n", *from, err)
		os.Exit(1)
	}

	out, err := toCodec.Encode(v)
	if err != nil {
		logger.Error("smileconv.encode_failed", smile.Fields{"to": *to, "err": err.Error()})
		fmt.Fprintf(os.Stderr, "smileconv: encode %s: %s\n", *to, err)
		os.Exit(1)
	}

	logger.Info("smileconv.converted", smile.Fields{
		"from":     *from,
		"to":       *to,
		"in_size":  humanize.Bytes(uint64(len(in))),
		"out_size": humanize.Bytes(uint64(len(out))),
	})

	if _, err := os.Stdout.Write(out); err != nil {
		fmt.Fprintf(os.Stderr, "smileconv: write stdout: %s\n", err)
		os.Exit(1)
	}
}

func resolveCodec(format string) (codec.Codec[smile.Value], error) {
	switch format {
	case "smile":
		return codec.NewSmile(), nil
	case "json":
		return codec.JSON[smile.Value]{}, nil
	case "cbor":
		return codec.MustCBOR[smile.Value](true), nil
	case "msgpack":
		return codec.Msgpack[smile.Value]{}, nil
	case "protobuf":
		return codec.Protobuf{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func buildLogger(kind string) smile.Logger {
	switch kind {
	case "zap":
		l, err := zap.NewProduction()
		if err != nil {
			return smile.NopLogger{}
		}
		return zaplog.Logger{L: l}
	case "logrus":
		return logruslog.Logger{E: logrus.NewEntry(logrus.New())}
	case "slog":
		return slogadapter.Logger{L: stdslog.New(stdslog.NewTextHandler(os.Stderr, nil))}
	default:
		return smile.NopLogger{}
	}
}
