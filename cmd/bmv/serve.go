// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	dto "github.com/prometheus/client_model/go"

	"github.com/luxfi/bmv/api/bmv"
	"github.com/luxfi/bmv/vms/bmv/metrics"
)

const (
	servicePath       = "/ext/bmv"
	metricsPath       = "/ext/metrics"
	readHeaderTimeout = 30 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func serveCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serves a link verifier over JSON-RPC",
		RunE:  serveFunc,
	}
	flags := c.Flags()
	AddLinkFlags(flags)
	flags.String(HTTPAddrKey, defaultHTTPAddr, "Address the JSON-RPC server listens on")
	flags.StringSlice(AllowedOriginsKey, []string{"*"}, "Origins allowed to make cross-origin requests")
	return c
}

func serveFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	linkConfig, err := ParseLinkFlags(flags)
	if err != nil {
		return err
	}
	httpAddr, err := flags.GetString(HTTPAddrKey)
	if err != nil {
		return err
	}
	allowedOrigins, err := flags.GetStringSlice(AllowedOriginsKey)
	if err != nil {
		return err
	}

	logger := log.Root()
	registry := metric.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	link, err := openLink(logger, linkConfig, m)
	if err != nil {
		return err
	}
	defer link.Close()

	handler, err := newHandler(logger, link.verifier, registry, allowedOrigins)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Info("serving link verifier",
		log.String("addr", httpAddr),
		log.String("path", servicePath),
		log.String("link", linkConfig.Link),
	)

	ctx := c.Context()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newHandler routes the JSON-RPC service and the metrics of [gatherer].
func newHandler(
	logger log.Logger,
	verifier bmv.Verifier,
	gatherer metric.Gatherer,
	allowedOrigins []string,
) (http.Handler, error) {
	service, err := bmv.NewService(logger, verifier)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Handle(servicePath, service).Methods(http.MethodPost)
	router.Handle(metricsPath, promhttp.HandlerFor(
		prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
			families, err := gatherer.Gather()
			return metric.NativeToDTO(families), err
		}),
		promhttp.HandlerOpts{},
	)).Methods(http.MethodGet)
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
	}).Handler(router), nil
}
