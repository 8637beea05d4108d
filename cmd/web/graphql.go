package main

import (
	"errors"
	"strings"

	"github.com/Rohanpatel16/projectverify/cmd/web/resultlist"
	"github.com/Rohanpatel16/projectverify/csvimport"
	"github.com/Rohanpatel16/projectverify/permutation"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/validation"
	"github.com/graphql-go/graphql"
)

var errMissingParameters = errors.New("missing required parameters")

func resultToMap(r provider.Result) map[string]interface{} {
	m := map[string]interface{}{
		"email":     r.Email,
		"isValid":   r.IsValid,
		"domain":    r.Domain,
		"status":    r.Status,
		"provider":  r.Provider.String(),
		"error":     r.Error,
		"timestamp": r.Timestamp,
	}

	if r.Score != nil {
		m["score"] = *r.Score
	}

	return m
}

func resultsToList(results []provider.Result) []interface{} {
	list := make([]interface{}, 0, len(results))
	for _, r := range results {
		list = append(list, resultToMap(r))
	}

	return list
}

func NewGraphQLSchema(svc *validation.Service, gen *permutation.Generator, list *resultlist.ResultList) (graphql.Schema, error) {

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "result",
		Fields: graphql.Fields{
			"email": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"isValid": &graphql.Field{
				Description: "True when the provider considers the address deliverable.",
				Type:        graphql.NewNonNull(graphql.Boolean),
			},
			"score": &graphql.Field{
				Description: "0 - 100, absent when the provider doesn't report one.",
				Type:        graphql.Int,
			},
			"domain": &graphql.Field{
				Type: graphql.String,
			},
			"status": &graphql.Field{
				Type: graphql.String,
			},
			"provider": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"error": &graphql.Field{
				Type: graphql.String,
			},
			"timestamp": &graphql.Field{
				Type: graphql.DateTime,
			},
		},
		Description: "The outcome of validating a single e-mail address",
	})

	settingsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "settings",
		Fields: graphql.Fields{
			"provider": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"batchSize": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"timeout": &graphql.Field{
				Description: "The per-call deadline in milliseconds, 0 disables it.",
				Type:        graphql.NewNonNull(graphql.Int),
			},
		},
	})

	providerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "provider",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"method": &graphql.Field{
				Type: graphql.String,
			},
			"endpoint": &graphql.Field{
				Type: graphql.String,
			},
			"features": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(graphql.String)),
			},
		},
	})

	domainType := graphql.NewObject(graphql.ObjectConfig{
		Name: "domain",
		Fields: graphql.Fields{
			"domain": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"valid": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"total": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
		},
	})

	query := graphql.Fields{
		"results": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(resultType)),
			Args: graphql.FieldConfigArgument{
				"valid": &graphql.ArgumentConfig{
					Type:         graphql.Boolean,
					DefaultValue: false,
					Description:  "Only return the valid results",
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if valid, _ := p.Args["valid"].(bool); valid {
					return resultsToList(list.Valid()), nil
				}

				return resultsToList(list.Results()), nil
			},
			Description: "The results of this session",
		},
		"settings": &graphql.Field{
			Type: settingsType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				s := svc.Settings()
				return map[string]interface{}{
					"provider":  s.Provider.String(),
					"batchSize": s.BatchSize,
					"timeout":   int(s.Timeout),
				}, nil
			},
		},
		"providers": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(providerType)),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				var providers []interface{}
				for _, info := range svc.Registry().Catalog() {
					features := make([]interface{}, 0, len(info.Features))
					for _, f := range info.Features {
						features = append(features, string(f))
					}

					providers = append(providers, map[string]interface{}{
						"id":       info.ID.String(),
						"name":     info.Name,
						"method":   info.Method,
						"endpoint": info.Endpoint,
						"features": features,
					})
				}

				return providers, nil
			},
		},
		"domains": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(domainType)),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				var domains []interface{}
				for _, d := range list.Domains() {
					domains = append(domains, map[string]interface{}{
						"domain": d.Domain,
						"valid":  d.Valid,
						"total":  d.Total,
					})
				}

				return domains, nil
			},
			Description: "Per domain counts of this session, the domains with the most valid addresses first",
		},
	}

	mutation := graphql.Fields{
		"validate": &graphql.Field{
			Type: resultType,
			Args: graphql.FieldConfigArgument{
				"email": &graphql.ArgumentConfig{
					Type:        graphql.NewNonNull(graphql.String),
					Description: "The e-mail address to validate with the configured provider",
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				email, ok := p.Args["email"].(string)
				if !ok || email == "" {
					return nil, errMissingParameters
				}

				return resultToMap(svc.ValidateEmail(p.Context, email)), nil
			},
		},
		"generate": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(graphql.String)),
			Args: graphql.FieldConfigArgument{
				"firstName": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"lastName": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"domain": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				first, _ := p.Args["firstName"].(string)
				last, _ := p.Args["lastName"].(string)
				domain, _ := p.Args["domain"].(string)

				domain = csvimport.CleanDomain(domain)
				if strings.TrimSpace(first) == "" || strings.TrimSpace(last) == "" || domain == "" {
					return nil, errMissingParameters
				}

				return gen.Generate(first, last, domain), nil
			},
			Description: "Generate the likely addresses for a person",
		},
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "RootQuery",
			Fields: query,
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name:   "RootMutation",
			Fields: mutation,
		}),
	})
}
