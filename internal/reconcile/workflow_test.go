package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/icspmerge/internal/apply"
	"github.com/imamik/icspmerge/internal/backup"
	"github.com/imamik/icspmerge/internal/cluster"
	"github.com/imamik/icspmerge/internal/confirm"
	"github.com/imamik/icspmerge/internal/diff"
	"github.com/imamik/icspmerge/internal/manifest"
	"github.com/imamik/icspmerge/internal/merge"
	"github.com/imamik/icspmerge/internal/metrics"
	"github.com/imamik/icspmerge/internal/source"
)

const livePolicies = `apiVersion: v1
kind: List
items:
- apiVersion: operator.openshift.io/v1alpha1
  kind: ImageContentSourcePolicy
  metadata:
    name: live-a
    resourceVersion: "1234"
  spec:
    repositoryDigestMirrors:
    - source: registry.io/foo
      mirrors:
      - m1
`

const localPolicy = `---
apiVersion: operator.openshift.io/v1alpha1
kind: ImageContentSourcePolicy
metadata:
  name: local-b
spec:
  repositoryDigestMirrors:
  - source: registry.io/foo
    mirrors:
    - m2
  - source: registry.io/bar
    mirrors:
    - m3
`

// fakeCluster lists canned live state and records applies.
type fakeCluster struct {
	mu       sync.Mutex
	live     string
	listErr  error
	applyErr error
	applied  [][]byte
	// onApply runs before the apply is recorded.
	onApply func()
}

func (f *fakeCluster) List(context.Context, string) ([]byte, error) {
	return []byte(f.live), f.listErr
}

func (f *fakeCluster) Apply(_ context.Context, data []byte) error {
	if f.onApply != nil {
		f.onApply()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, data)
	return f.applyErr
}

func (f *fakeCluster) applyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applied)
}

// countingConfirmer answers every request with a fixed decision.
type countingConfirmer struct {
	decision confirm.Decision
	calls    int
}

func (c *countingConfirmer) Await(context.Context, *diff.Diff) (confirm.Decision, error) {
	c.calls++
	return c.decision, nil
}

var _ = Describe("Workflow", func() {
	var (
		ctx        context.Context
		workDir    string
		backupRoot string
		inputFile  string
		fake       *fakeCluster
		recorder   *metrics.Recorder
		log        logr.Logger
		cfg        Config
	)

	newWorkflow := func(confirmer Confirmer, opts ...Option) *Workflow {
		loader := source.NewLoader(fake, source.WithLogger(log))
		backups := backup.NewManager(backupRoot,
			backup.WithLogger(log),
			backup.WithClock(func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }),
		)
		applier := apply.NewApplier(fake, log)
		opts = append([]Option{WithLogger(log), WithMetrics(recorder)}, opts...)
		return New(cfg, loader, backups, confirmer, applier, opts...)
	}

	BeforeEach(func() {
		ctx = context.Background()
		workDir = GinkgoT().TempDir()
		backupRoot = filepath.Join(workDir, "backups")
		inputFile = filepath.Join(workDir, "local.yaml")
		Expect(os.WriteFile(inputFile, []byte(localPolicy), 0o600)).To(Succeed())

		fake = &fakeCluster{live: livePolicies}
		recorder = metrics.NewRecorder()
		log = zap.New(zap.WriteTo(GinkgoWriter), zap.UseDevMode(true))
		cfg = Config{
			ResourceType: manifest.DefaultResourceType,
			Files:        []string{inputFile},
			MergedName:   "merged-0",
		}
	})

	Context("when the operator confirms", func() {
		It("backs up live state before applying the merged manifest", func() {
			backupDir := filepath.Join(backupRoot, "backup-20261017-093000")
			backupPresentAtApply := false
			fake.onApply = func() {
				_, err := os.Stat(filepath.Join(backupDir, "imagecontentsourcepolicy-live-a.yaml"))
				backupPresentAtApply = err == nil
			}

			var transitions []State
			wf := newWorkflow(&countingConfirmer{decision: confirm.Proceed},
				WithTransitionHook(func(_, to State) { transitions = append(transitions, to) }))

			out, err := wf.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.State).To(Equal(Applied))
			Expect(backupPresentAtApply).To(BeTrue())
			Expect(fake.applyCount()).To(Equal(1))

			Expect(transitions).To(Equal([]State{Loading, Merging, BackingUp, AwaitingConfirmation, Applying, Applied}))

			_, err = uuid.Parse(out.RunID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("applies the merged rules with cluster entries first", func() {
			wf := newWorkflow(&countingConfirmer{decision: confirm.Proceed})

			out, err := wf.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Merged.Metadata.Name).To(Equal("merged-0"))
			Expect(out.Merged.Rules()).To(Equal([]manifest.MirrorRule{
				{Source: "registry.io/bar", Mirrors: []string{"m3"}},
				{Source: "registry.io/foo", Mirrors: []string{"m1", "m2"}},
			}))

			want, err := manifest.Marshal(out.Merged)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(fake.applied[0])).To(Equal(string(want)))
		})

		It("keeps the backup verbatim", func() {
			out, err := newWorkflow(&countingConfirmer{decision: confirm.Proceed}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Backup.Files).To(HaveLen(1))

			data, err := os.ReadFile(out.Backup.Files[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`resourceVersion: "1234"`))
		})

		It("writes the canonical output file", func() {
			cfg.OutputPath = filepath.Join(workDir, "merged.yaml")

			out, err := newWorkflow(&countingConfirmer{decision: confirm.Proceed}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(cfg.OutputPath)
			Expect(err).NotTo(HaveOccurred())
			want, err := manifest.Marshal(out.Merged)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(want))
		})

		It("records run metrics", func() {
			_, err := newWorkflow(&countingConfirmer{decision: confirm.Proceed}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(workDir, "icspmerge.prom")
			Expect(recorder.WriteTextfile(path)).To(Succeed())
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`icspmerge_run_total{result="applied"} 1`))
			Expect(string(data)).To(ContainSubstring("icspmerge_merge_rules 2"))
			Expect(string(data)).To(ContainSubstring("icspmerge_backup_files 1"))
		})
	})

	It("uses a provided run ID", func() {
		out, err := newWorkflow(&countingConfirmer{decision: confirm.Abort}, WithRunID("run-42")).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.RunID).To(Equal("run-42"))
	})

	Context("when the operator answers no", func() {
		It("aborts without applying", func() {
			gate := confirm.NewGate()
			served := make(chan error, 1)
			go func() {
				decider := &confirm.LineDecider{In: strings.NewReader("no\n")}
				served <- confirm.Serve(ctx, gate, decider, GinkgoWriter, false)
			}()

			out, err := newWorkflow(gate).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(<-served).To(Succeed())

			Expect(out.State).To(Equal(Aborted))
			Expect(out.Unchanged).To(BeFalse())
			Expect(fake.applyCount()).To(BeZero())
			Expect(out.Backup.Files).To(HaveLen(1), "backup is kept as the recovery path")
		})
	})

	Context("when the confirmation is cancelled", func() {
		It("aborts without applying", func() {
			cancelCtx, cancel := context.WithCancel(ctx)
			gate := confirm.NewGate()
			go func() {
				<-gate.Requests()
				cancel()
			}()

			out, err := newWorkflow(gate).Run(cancelCtx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.State).To(Equal(Aborted))
			Expect(fake.applyCount()).To(BeZero())
		})
	})

	Context("when the live state already matches", func() {
		It("ends without asking", func() {
			cfg.Files = nil
			fake.live = `---
apiVersion: operator.openshift.io/v1alpha1
kind: ImageContentSourcePolicy
metadata:
  name: merged-0
spec:
  repositoryDigestMirrors:
  - source: registry.io/foo
    mirrors:
    - m1
`
			confirmer := &countingConfirmer{decision: confirm.Proceed}

			out, err := newWorkflow(confirmer).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.State).To(Equal(Aborted))
			Expect(out.Unchanged).To(BeTrue())
			Expect(out.Diff.Empty()).To(BeTrue())
			Expect(confirmer.calls).To(BeZero())
			Expect(fake.applyCount()).To(BeZero())
		})
	})

	Context("when other live policies exist", func() {
		It("leaves them out of the diff", func() {
			out, err := newWorkflow(&countingConfirmer{decision: confirm.Abort}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Diff.String()).NotTo(ContainSubstring("live-a"))
			_, removed := out.Diff.Stats()
			Expect(removed).To(BeZero())
		})

		It("ends without asking when the merged policy is current", func() {
			cfg.Files = nil
			fake.live = livePolicies + `- apiVersion: operator.openshift.io/v1alpha1
  kind: ImageContentSourcePolicy
  metadata:
    name: merged-0
  spec:
    repositoryDigestMirrors:
    - source: registry.io/foo
      mirrors:
      - m1
`
			confirmer := &countingConfirmer{decision: confirm.Proceed}

			out, err := newWorkflow(confirmer).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Unchanged).To(BeTrue())
			Expect(out.Backup.Files).To(HaveLen(2))
			Expect(confirmer.calls).To(BeZero())
			Expect(fake.applyCount()).To(BeZero())
		})
	})

	Context("when a backup write fails", func() {
		It("fails before asking and never applies", func() {
			// A regular file where the backup root should be.
			Expect(os.WriteFile(backupRoot, []byte("x"), 0o600)).To(Succeed())
			confirmer := &countingConfirmer{decision: confirm.Proceed}

			out, err := newWorkflow(confirmer).Run(ctx)
			Expect(err).To(MatchError(backup.ErrBackupWriteFailed))
			Expect(out.State).To(Equal(Failed))
			Expect(confirmer.calls).To(BeZero())
			Expect(fake.applyCount()).To(BeZero())
		})
	})

	Context("when there is nothing to merge", func() {
		It("fails with no input manifests", func() {
			cfg.Files = nil
			fake.live = ""

			out, err := newWorkflow(&countingConfirmer{decision: confirm.Proceed}).Run(ctx)
			Expect(err).To(MatchError(merge.ErrNoInputManifests))
			Expect(out.State).To(Equal(Failed))
			_, statErr := os.Stat(backupRoot)
			Expect(os.IsNotExist(statErr)).To(BeTrue(), "no backup directory without live state")
		})
	})

	Context("when the live query fails", func() {
		It("fails while loading", func() {
			fake.listErr = &cluster.Error{Op: "kubectl get", Output: "Unable to connect to the server", Err: errors.New("exit status 1")}

			var last State
			wf := newWorkflow(&countingConfirmer{decision: confirm.Proceed},
				WithTransitionHook(func(from, to State) {
					if to == Failed {
						last = from
					}
				}))

			out, err := wf.Run(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Unable to connect to the server"))
			Expect(out.State).To(Equal(Failed))
			Expect(last).To(Equal(Loading))
		})
	})

	Context("when the apply fails", func() {
		It("fails with the cluster diagnostic", func() {
			fake.applyErr = &cluster.Error{Op: "kubectl apply", Output: "admission webhook denied the request", Err: errors.New("exit status 1")}

			out, err := newWorkflow(&countingConfirmer{decision: confirm.Proceed}).Run(ctx)
			Expect(err).To(MatchError(apply.ErrApplyFailed))
			Expect(err.Error()).To(ContainSubstring("admission webhook denied the request"))
			Expect(out.State).To(Equal(Failed))
			Expect(fake.applyCount()).To(Equal(1))
			Expect(out.Backup.Files).To(HaveLen(1))
		})
	})

	Context("when an input document is malformed", func() {
		It("skips it and continues", func() {
			Expect(os.WriteFile(inputFile, []byte(localPolicy+"---\nkind: ImageContentSourcePolicy\nspec: {}\n"), 0o600)).To(Succeed())

			out, err := newWorkflow(&countingConfirmer{decision: confirm.Proceed}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.State).To(Equal(Applied))
			Expect(out.Skipped).To(HaveLen(1))
			Expect(out.Skipped[0]).To(MatchError(manifest.ErrMalformedManifest))
		})
	})
})

var _ = Describe("State", func() {
	DescribeTable("String",
		func(s State, want string) {
			Expect(s.String()).To(Equal(want))
		},
		Entry("idle", Idle, "Idle"),
		Entry("awaiting", AwaitingConfirmation, "AwaitingConfirmation"),
		Entry("failed", Failed, "Failed"),
		Entry("unknown", State(42), "State(42)"),
	)

	It("marks only end states as terminal", func() {
		Expect(Applied.Terminal()).To(BeTrue())
		Expect(Aborted.Terminal()).To(BeTrue())
		Expect(Failed.Terminal()).To(BeTrue())
		Expect(Applying.Terminal()).To(BeFalse())
		Expect(AwaitingConfirmation.Terminal()).To(BeFalse())
	})
})
