package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/ledanim/anim"
	"github.com/matt-g-everett/ledanim/api"
	"github.com/matt-g-everett/ledanim/scene"
	"github.com/matt-g-everett/ledanim/store"
	"github.com/matt-g-everett/ledanim/stream"
	"github.com/matt-g-everett/ledanim/util"
)

type app struct {
	Config   stream.Config
	Client   mqtt.Client
	Scene    *scene.Scene
	Streamer *stream.Streamer
	Logger   *slog.Logger
}

func newApp() *app {
	a := new(app)
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.Logger.Info("connected", "broker", a.Config.Mqtt.URL)
}

func (a *app) handleConnectionLost(client mqtt.Client, err error) {
	a.Logger.Warn("connection lost", "error", err)
}

func (a *app) run(ctx context.Context) {
	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}
	defer a.Client.Disconnect(250)

	if err := a.Streamer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error("streamer stopped", "error", err)
	}
}

func (a *app) readConfig(configPath string) {
	c, err := stream.ReadConfig(configPath)
	if err != nil {
		panic(err)
	}
	a.Config = c
}

func (a *app) loadScene(reg *anim.TypeRegistry) {
	f, err := os.Open(a.Config.Animation.Document)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	a.Scene, err = scene.Load(f, reg)
	if err != nil {
		panic(err)
	}
	a.Logger.Info("loaded scene",
		"animation", a.Scene.Animation.Name,
		"lights", len(a.Scene.Lights()),
		"layers", len(a.Scene.Animation.Layers()))
}

// syncStore saves the document's animation, or replaces it with the saved
// copy when restore is set.
func (a *app) syncStore(ctx context.Context, reg *anim.TypeRegistry, restore bool) {
	if a.Config.Animation.Database == "" {
		return
	}

	st, err := store.Open(a.Config.Animation.Database, a.Logger)
	if err != nil {
		panic(err)
	}
	defer st.Close()

	if !restore {
		if err := st.Save(ctx, a.Scene.Animation); err != nil {
			panic(err)
		}
		return
	}

	saved, err := st.Load(ctx, a.Scene.Animation.Name)
	if errors.Is(err, store.ErrNotFound) {
		a.Logger.Warn("no saved animation, playing the document", "animation", a.Scene.Animation.Name)
		return
	}
	if err != nil {
		panic(err)
	}
	if err := a.Scene.Rebind(saved, reg); err != nil {
		panic(err)
	}
	a.Logger.Info("restored animation", "animation", saved.Name)
}

func main() {
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	restore := flag.Bool("restore", false, "Play the animation saved in the database instead of the document's.")
	flag.Parse()

	// Read the config
	a := newApp()
	a.readConfig(*configPath)
	a.Logger = util.NewLogger(os.Stdout, a.Config.LogLevel)
	anim.SetLogger(a.Logger)

	reg := anim.NewTypeRegistry()
	scene.InitTypes(reg)
	a.loadScene(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.syncStore(ctx, reg, *restore)

	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(a.Config.Mqtt.ClientID).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(a.handleOnConnect).
		SetConnectionLostHandler(a.handleConnectionLost)
	a.Client = mqtt.NewClient(options)

	evaluator := anim.NewEvaluator(scene.Resolver{}, a.Logger)
	player := stream.NewPlayer(a.Scene, evaluator,
		a.Config.Animation.FrameRate, a.Config.Animation.LoopStart, a.Config.Animation.LoopEnd)
	a.Streamer = stream.NewStreamer(a.Config, a.Client, player, a.Logger)

	server := api.NewApi(a.Scene, evaluator, a.Logger)
	go func() {
		if err := server.Serve(a.Config.HTTP.Addr); err != nil {
			a.Logger.Error("http server stopped", "error", err)
		}
	}()

	a.run(ctx)
}
