package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/event"
	"github.com/abhisek/codequiz/internal/judge"
	"github.com/abhisek/codequiz/internal/llm"
	"github.com/abhisek/codequiz/internal/practice"
	"github.com/abhisek/codequiz/internal/questiongen"
	"github.com/abhisek/codequiz/internal/session"
	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/store"
)

// runtime holds the wired practice service and what must be closed with
// it.
type runtime struct {
	svc     *practice.Service
	closers []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// buildRuntime wires the practice service from cfg. Redis and AMQP are
// used when configured; otherwise locks and leaderboards stay in process
// and events are dropped.
func buildRuntime(ctx context.Context, st *store.Store, metrics practice.Metrics, observer llm.Observer) (*runtime, error) {
	rt := &runtime{}

	provider, mock, err := buildProvider(ctx, st, observer)
	if err != nil {
		return nil, err
	}

	genCfg := questiongen.DefaultConfig()
	genCfg.DefaultLanguage = cfg.Practice.DefaultLanguage
	genCfg.MaxPriorQuestions = cfg.Practice.MaxPriorQuestions
	if mock {
		// The sample bank is small; repeats are expected.
		genCfg.Validators = []questiongen.Validator{&questiongen.StructuralValidator{}}
	}

	deps := practice.Deps{
		Skills:    skill.NewTracker(st.SkillRepo(), skill.WithLogger(logger)),
		Sessions:  session.NewRecorder(st.SessionRepo(), logger),
		Questions: st.QuestionRepo(),
		Tx:        st,
		Generator: questiongen.New(provider, genCfg, logger),
		Judge:     judge.NewComposite(judge.NewLLMJudge(provider, judge.DefaultLLMJudgeConfig())),
		Metrics:   metrics,
		Logger:    logger,
	}

	if cfg.Redis.URL != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		deps.Locker = cache.NewRedisLocker(client, cfg.Redis.LockTTL, cfg.Redis.LockWait, logger)
		deps.Leaderboard = cache.NewRedisLeaderboard(client)
		logger.Info("using redis for locks and leaderboards")
	} else {
		deps.Locker = cache.NewLocalLocker()
		deps.Leaderboard = cache.NewSQLLeaderboard(st.SkillRepo())
	}

	if cfg.AMQP.URL != "" {
		pub, err := event.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pub.Close)
		deps.Events = pub
	} else {
		deps.Events = event.Nop{}
	}

	svc, err := practice.New(deps, practice.Config{
		DefaultLanguage:   cfg.Practice.DefaultLanguage,
		MaxPriorQuestions: cfg.Practice.MaxPriorQuestions,
		GenerateAttempts:  cfg.Practice.GenerateAttempts,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.svc = svc
	return rt, nil
}

// buildProvider creates the LLM provider. Without a usable API key it falls
// back to the offline sample bank and reports mock=true.
func buildProvider(ctx context.Context, st *store.Store, observer llm.Observer) (provider llm.Provider, mock bool, err error) {
	llmCfg := cfg.LLM
	if llmCfg.Provider != llm.ProviderMock && !llmCfg.Discover() {
		logger.Warn("LLM provider not configured, serving built-in sample questions",
			"provider", llmCfg.Provider)
		llmCfg.Provider = llm.ProviderMock
	}

	provider, err = llm.NewProvider(ctx, llmCfg, llm.Options{
		Events:      st.EventRepo(),
		Observer:    observer,
		MockHandler: questiongen.SampleHandler(),
		Logger:      logger,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create LLM provider: %w", err)
	}
	return provider, llmCfg.Provider == llm.ProviderMock, nil
}

// redisClient opens the configured Redis, or returns nil when none is set.
func redisClient(ctx context.Context) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}
	return cache.NewClient(ctx, cfg.Redis.URL)
}
