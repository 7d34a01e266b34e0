package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	k8syaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"
)

// DefaultFieldManager identifies this tool in server-side apply.
const DefaultFieldManager = "icspmerge"

// API is a Client backed by the Kubernetes API using a dynamic client.
type API struct {
	dynamicClient dynamic.Interface
	mapper        meta.RESTMapper
	fieldManager  string
	log           logr.Logger
}

// NewAPI creates an API client from a kubeconfig path. An empty path uses
// the default loading rules ($KUBECONFIG, then ~/.kube/config).
func NewAPI(kubeconfigPath string, log logr.Logger) (*API, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		loadingRules.ExplicitPath = kubeconfigPath
	}
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	// Create dynamic client for listing and applying arbitrary resources
	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	// Create discovery client for REST mapping
	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}

	groupResources, err := restmapper.GetAPIGroupResources(discoveryClient)
	if err != nil {
		return nil, fmt.Errorf("failed to get API group resources: %w", err)
	}

	return NewAPIFromClients(dynamicClient, restmapper.NewDiscoveryRESTMapper(groupResources), log), nil
}

// NewAPIFromClients creates an API client from pre-configured clients.
// This is useful for testing with fake clients.
func NewAPIFromClients(dynamicClient dynamic.Interface, mapper meta.RESTMapper, log logr.Logger) *API {
	return &API{
		dynamicClient: dynamicClient,
		mapper:        mapper,
		fieldManager:  DefaultFieldManager,
		log:           log,
	}
}

// List implements Client. Objects are returned sorted by name, one YAML
// document each.
func (a *API) List(ctx context.Context, resourceType string) ([]byte, error) {
	gvr, err := a.mapper.ResourceFor(schema.GroupVersionResource{Resource: resourceType})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve resource type %s: %w", resourceType, err)
	}

	list, err := a.dynamicClient.Resource(gvr).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &Error{Op: "list " + gvr.Resource, Err: err}
	}

	items := list.Items
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].GetName() < items[j].GetName()
	})

	var buf bytes.Buffer
	for i := range items {
		data, err := yaml.Marshal(items[i].Object)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s: %w", gvr.Resource, items[i].GetName(), err)
		}
		buf.WriteString("---\n")
		buf.Write(data)
	}
	a.log.V(1).Info("listed live resources", "resource", gvr.String(), "count", len(items))
	return buf.Bytes(), nil
}

// Apply implements Client using server-side apply. Documents are applied
// in stream order; the first failure stops the batch.
func (a *API) Apply(ctx context.Context, manifests []byte) error {
	decoder := k8syaml.NewYAMLOrJSONDecoder(bytes.NewReader(manifests), 4096)

	docIndex := 0
	for {
		var obj unstructured.Unstructured
		if err := decoder.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to decode manifest document %d: %w", docIndex, err)
		}

		// Skip empty documents (common in multi-doc YAML)
		if len(obj.Object) == 0 {
			docIndex++
			continue
		}

		if err := a.applyObject(ctx, &obj); err != nil {
			return err
		}
		docIndex++
	}
	return nil
}

func (a *API) applyObject(ctx context.Context, obj *unstructured.Unstructured) error {
	gvk := obj.GroupVersionKind()
	if gvk.Kind == "" {
		return errors.New("object has no kind set")
	}

	mapping, err := a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return fmt.Errorf("failed to get REST mapping for %v: %w", gvk, err)
	}

	data, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal object to JSON: %w", err)
	}

	force := true
	opts := metav1.PatchOptions{FieldManager: a.fieldManager, Force: &force}

	var resource dynamic.ResourceInterface = a.dynamicClient.Resource(mapping.Resource)
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		namespace := obj.GetNamespace()
		if namespace == "" {
			namespace = "default"
		}
		resource = a.dynamicClient.Resource(mapping.Resource).Namespace(namespace)
	}

	if _, err := resource.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, opts); err != nil {
		return &Error{Op: fmt.Sprintf("server-side apply of %s %s", gvk.Kind, obj.GetName()), Err: err}
	}
	a.log.Info("applied", "kind", gvk.Kind, "name", obj.GetName())
	return nil
}
