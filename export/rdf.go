package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/swcgen/graph"
)

// Namespaces of exported RDF.
const (
	Namespace       = "https://swcgen.dev/ontology#"
	EntityNamespace = "https://swcgen.dev/entity/"
	rdfType         = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdNamespace    = "http://www.w3.org/2001/XMLSchema#"
)

// Classes.
const (
	ClassSWC            = "SoftwareComponent"
	ClassPort           = "Port"
	ClassInterface      = "PortInterface"
	ClassDataElement    = "DataElement"
	ClassDataType       = "ApplicationDataType"
	ClassRunnable       = "Runnable"
	ClassAccessPoint    = "VariableAccess"
	ClassConnection     = "Connection"
	ClassECUComposition = "ECUComposition"
	ClassSWCInstance    = "SWCInstance"
	ClassConnector      = "Connector"
)

// IRI is a triple object that refers to a resource rather than a literal.
type IRI string

// Triple is a predicate-object pair of an entity. Predicate is local to
// Namespace.
type Triple struct {
	Predicate string
	Object    any
}

// Entity is one exported resource.
type Entity struct {
	ID      string
	Class   string
	Triples []Triple
}

// RDFExporter renders a snapshot as RDF.
type RDFExporter struct {
	entities []Entity
	prefixes map[string]string
}

// NewRDFExporter collects the entities of snap in graph order.
func NewRDFExporter(snap graph.Snapshot) *RDFExporter {
	e := &RDFExporter{prefixes: defaultPrefixes()}
	e.addSnapshot(snap)
	return e
}

func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":    "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"xsd":    xsdNamespace,
		"swcgen": Namespace,
		"entity": EntityNamespace,
	}
}

// Entities returns the collected entities.
func (e *RDFExporter) Entities() []Entity {
	return e.entities
}

func (e *RDFExporter) add(id, class string, triples ...Triple) {
	e.entities = append(e.entities, Entity{ID: id, Class: class, Triples: triples})
}

func ref(id string) IRI {
	return IRI(entityIDToIRI(id))
}

func (e *RDFExporter) addSnapshot(snap graph.Snapshot) {
	for _, swc := range snap.SWCs {
		triples := []Triple{
			{"name", swc.Name},
			{"category", string(swc.Category)},
			{"componentType", swc.Type},
		}
		if swc.Description != "" {
			triples = append(triples, Triple{"description", swc.Description})
		}
		for _, port := range swc.Ports {
			triples = append(triples, Triple{"hasPort", ref(port.ID)})
		}
		for _, run := range swc.Runnables {
			triples = append(triples, Triple{"hasRunnable", ref(run.ID)})
		}
		e.add(swc.ID, ClassSWC, triples...)

		for _, port := range swc.Ports {
			e.add(port.ID, ClassPort,
				Triple{"name", port.Name},
				Triple{"direction", string(port.Direction)},
				Triple{"interface", ref(port.InterfaceRef)},
				Triple{"owner", ref(port.SWCID)})
		}
		for _, run := range swc.Runnables {
			triples := []Triple{
				{"name", run.Name},
				{"runnableType", string(run.RunnableType)},
				{"period", run.Period},
				{"canBeInvokedConcurrently", run.CanBeInvokedConcurrently},
				{"owner", ref(run.SWCID)},
			}
			for _, ap := range run.AccessPoints {
				triples = append(triples, Triple{"hasAccessPoint", ref(ap.ID)})
			}
			e.add(run.ID, ClassRunnable, triples...)

			for _, ap := range run.AccessPoints {
				e.add(ap.ID, ClassAccessPoint,
					Triple{"name", ap.Name},
					Triple{"accessType", string(ap.Type)},
					Triple{"access", string(ap.Access)},
					Triple{"port", ref(ap.PortRef)},
					Triple{"dataElement", ref(ap.DataElementRef)})
			}
		}
	}

	types := make(map[string]string, len(snap.DataTypes))
	for _, dt := range snap.DataTypes {
		types[dt.Name] = dt.ID
	}

	for _, iface := range snap.Interfaces {
		triples := []Triple{
			{"name", iface.Name},
			{"interfaceType", string(iface.Type)},
		}
		for _, de := range iface.DataElements {
			triples = append(triples, Triple{"hasDataElement", ref(de.ID)})
		}
		e.add(iface.ID, ClassInterface, triples...)

		for _, de := range iface.DataElements {
			triples := []Triple{
				{"name", de.Name},
				{"baseType", de.SwDataDefProps.BaseTypeRef},
			}
			if id, ok := types[de.ApplicationDataTypeRef]; ok {
				triples = append(triples, Triple{"dataType", ref(id)})
			}
			e.add(de.ID, ClassDataElement, triples...)
		}
	}

	for _, dt := range snap.DataTypes {
		e.add(dt.ID, ClassDataType,
			Triple{"name", dt.Name},
			Triple{"category", dt.Category},
			Triple{"baseType", dt.BaseType})
	}

	for _, c := range snap.Connections {
		e.add(c.ID, ClassConnection,
			Triple{"name", c.Name},
			Triple{"sourcePort", ref(c.SourcePortID)},
			Triple{"targetPort", ref(c.TargetPortID)})
	}

	for _, comp := range snap.Compositions {
		triples := []Triple{{"name", comp.Name}}
		for _, inst := range comp.SWCInstances {
			triples = append(triples, Triple{"hasInstance", ref(inst.ID)})
		}
		for _, conn := range comp.Connectors {
			triples = append(triples, Triple{"hasConnector", ref(conn.ID)})
		}
		e.add(comp.ID, ClassECUComposition, triples...)

		for _, inst := range comp.SWCInstances {
			e.add(inst.ID, ClassSWCInstance,
				Triple{"name", inst.Name},
				Triple{"instanceOf", ref(inst.SWCRef)})
		}
		for _, conn := range comp.Connectors {
			e.add(conn.ID, ClassConnector,
				Triple{"name", conn.Name},
				Triple{"sourceInstance", ref(conn.SourceInstanceID)},
				Triple{"sourcePort", ref(conn.SourcePortID)},
				Triple{"targetInstance", ref(conn.TargetInstanceID)},
				Triple{"targetPort", ref(conn.TargetPortID)})
		}
	}
}

// Turtle serializes to Turtle format.
func (e *RDFExporter) Turtle() string {
	var sb strings.Builder

	keys := make([]string, 0, len(e.prefixes))
	for k := range e.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, prefix := range keys {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", prefix, e.prefixes[prefix])
	}

	for _, entity := range e.entities {
		fmt.Fprintf(&sb, "\n<%s>\n    a swcgen:%s", entityIDToIRI(entity.ID), entity.Class)
		for _, t := range entity.Triples {
			fmt.Fprintf(&sb, " ;\n    swcgen:%s %s", t.Predicate, formatObject(t.Object))
		}
		sb.WriteString(" .\n")
	}
	return sb.String()
}

// NTriples serializes to N-Triples format, one triple per line.
func (e *RDFExporter) NTriples() string {
	var sb strings.Builder
	for _, entity := range e.entities {
		iri := entityIDToIRI(entity.ID)
		fmt.Fprintf(&sb, "<%s> <%s> <%s%s> .\n", iri, rdfType, Namespace, entity.Class)
		for _, t := range entity.Triples {
			fmt.Fprintf(&sb, "<%s> <%s%s> %s .\n", iri, Namespace, t.Predicate, formatObjectNTriples(t.Object))
		}
	}
	return sb.String()
}

// entityIDToIRI converts a "kind:id" entity id to an IRI.
// Example: "swc:4f1c..." -> "https://swcgen.dev/entity/swc/4f1c..."
func entityIDToIRI(entityID string) string {
	id, err := graph.ParseEntityID(entityID)
	if err != nil {
		return EntityNamespace + strings.ReplaceAll(entityID, ":", "/")
	}
	return fmt.Sprintf("%s%s/%s", EntityNamespace, id.Kind, id.ID)
}

// formatObject formats an object value for Turtle output.
func formatObject(obj any) string {
	switch v := obj.(type) {
	case IRI:
		return fmt.Sprintf("<%s>", string(v))
	case string:
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int:
		return fmt.Sprintf("\"%d\"^^xsd:integer", v)
	case bool:
		return fmt.Sprintf("\"%t\"^^xsd:boolean", v)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// formatObjectNTriples formats an object value for N-Triples output.
func formatObjectNTriples(obj any) string {
	switch v := obj.(type) {
	case IRI:
		return fmt.Sprintf("<%s>", string(v))
	case string:
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int:
		return fmt.Sprintf("\"%d\"^^<%sinteger>", v, xsdNamespace)
	case bool:
		return fmt.Sprintf("\"%t\"^^<%sboolean>", v, xsdNamespace)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
