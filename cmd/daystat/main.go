// daystat 按天统计计数的命令行工具
//
//	daystat migrate -conf daystat.yaml [-verbosity 1] [-stat name] [-init-schema]
//	daystat serve -conf daystat.yaml
//	daystat views -conf daystat.yaml -stat video_views -video 1 [-language en]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	c "github.com/d0ngw/daystat/common"
	"github.com/d0ngw/daystat/statistic"
	"github.com/d0ngw/daystat/stats"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: daystat <migrate|serve|views> -conf daystat.yaml [flags]")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		c.Errorf("%s fail,err:%v", os.Args[1], err)
		c.SyncLog()
		os.Exit(1)
	}
	c.SyncLog()
}

func run(cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "migrate":
		return runMigrate(args, out)
	case "serve":
		return runServe(args)
	case "views":
		return runViews(args, out)
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func openApp(conf string) (*App, error) {
	if conf == "" {
		return nil, errors.New("-conf is required")
	}
	appConf, err := loadConfig(conf)
	if err != nil {
		return nil, err
	}
	return NewApp(appConf)
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func runMigrate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	conf := fs.String("conf", "", "config file")
	verbosity := fs.Int("verbosity", 0, "log every migrated key when >= 1")
	stat := fs.String("stat", "", "statistic to migrate, empty for all")
	initSchema := fs.Bool("init-schema", false, "create tables before migrating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openApp(*conf)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *initSchema {
		if err = app.InitSchema(ctx); err != nil {
			return err
		}
	}
	migrated, err := app.Migrate(ctx, *stat, *verbosity)
	if err != nil {
		return err
	}
	return writeJSON(out, migrated)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	conf := fs.String("conf", "", "config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openApp(*conf)
	if err != nil {
		return err
	}
	defer app.Close()

	services, err := app.Services()
	if err != nil {
		return err
	}
	if !services.Init() {
		return errors.New("init services fail")
	}
	if !services.Start() {
		services.Stop()
		return errors.New("start services fail")
	}

	hook := c.NewShutdownhook()
	hook.AddHook(func() {
		services.Stop()
	})
	c.Infof("daystat started")
	hook.WaitShutdown()
	return nil
}

func runViews(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("views", flag.ContinueOnError)
	conf := fs.String("conf", "", "config file")
	stat := fs.String("stat", statistic.VideoViewsName, "statistic name")
	video := fs.Int64("video", 0, "video id")
	language := fs.String("language", "", "subtitle language")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openApp(*conf)
	if err != nil {
		return err
	}
	defer app.Close()

	s, err := app.Registry().Get(*stat)
	if err != nil {
		return err
	}
	fields := stats.Fields{statistic.FieldVideo: *video}
	if *language != "" {
		fields[statistic.FieldLanguage] = *language
	}
	views, err := s.GetViews(context.Background(), fields)
	if err != nil {
		return err
	}
	return writeJSON(out, views)
}
