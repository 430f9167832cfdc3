package graph

import (
	"github.com/graphql-go/graphql"
	"github.com/tablero-dev/tablero/internal/models"
	"github.com/tablero-dev/tablero/internal/pubsub"
	"github.com/tablero-dev/tablero/internal/services"
)

// NewSchema builds the executable schema over the given resolver.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"email":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"avatar": &graphql.Field{Type: graphql.String},
		},
	})

	cardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Card",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"duedate":     &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"userId":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"projectId":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"files": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch card := p.Source.(type) {
					case models.Card:
						return card.FileList(), nil
					case *models.Card:
						return card.FileList(), nil
					}
					return []string{}, nil
				},
			},
		},
	})

	projectType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Project",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"userIds": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(graphql.ID)),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch project := p.Source.(type) {
					case models.Project:
						return project.OwnerIDs(), nil
					case *models.Project:
						return project.OwnerIDs(), nil
					}
					return []uint64{}, nil
				},
			},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getAllCards": &graphql.Field{
				Type: graphql.NewList(cardType),
				Args: graphql.FieldConfigArgument{
					"projectId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					projectID, err := optionalIDArg(p.Args, "projectId")
					if err != nil {
						return nil, err
					}
					cards, err := r.Cards.ListCards(services.ListCardsInput{
						UserID:    userID,
						ProjectID: projectID,
					})
					if err != nil {
						return nil, sanitizeErr("getAllCards", err)
					}
					return cards, nil
				},
			},
			"projects": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(projectType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					projects, err := r.Projects.ListProjects(userID)
					if err != nil {
						return nil, sanitizeErr("projects", err)
					}
					return projects, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, _ := stringArg(p.Args, "email")
					password, _ := stringArg(p.Args, "password")
					result, err := r.Auth.Login(services.LoginInput{Email: email, Password: password})
					if err != nil {
						return nil, sanitizeErr("login", err)
					}
					return map[string]interface{}{
						"token": result.Token,
						"user":  *result.User,
					}, nil
				},
			},
			"createCard": &graphql.Field{
				Type: graphql.NewNonNull(cardType),
				Args: graphql.FieldConfigArgument{
					"title":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"duedate":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":        &graphql.ArgumentConfig{Type: graphql.String},
					"color":       &graphql.ArgumentConfig{Type: graphql.String},
					"projectId":   &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					projectID, err := optionalIDArg(p.Args, "projectId")
					if err != nil {
						return nil, err
					}
					title, _ := stringArg(p.Args, "title")
					description, _ := stringArg(p.Args, "description")
					duedate, _ := stringArg(p.Args, "duedate")
					cardType, _ := stringArg(p.Args, "type")
					color, _ := stringArg(p.Args, "color")

					card, err := r.Cards.CreateCard(services.CreateCardInput{
						Title:       title,
						Description: description,
						DueDate:     duedate,
						Type:        cardType,
						Color:       color,
						ProjectID:   projectID,
						UserID:      userID,
					})
					if err != nil {
						return nil, sanitizeErr("createCard", err)
					}
					return *card, nil
				},
			},
			"deleteCard": &graphql.Field{
				Type: graphql.NewNonNull(cardType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					cardID, err := idArg(p.Args, "id")
					if err != nil {
						return nil, err
					}
					card, err := r.Cards.DeleteCard(cardID, userID)
					if err != nil {
						return nil, sanitizeErr("deleteCard", err)
					}
					return *card, nil
				},
			},
			"editCard": &graphql.Field{
				Type: graphql.NewNonNull(cardType),
				Args: graphql.FieldConfigArgument{
					"id":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"title":       &graphql.ArgumentConfig{Type: graphql.String},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"duedate":     &graphql.ArgumentConfig{Type: graphql.String},
					"color":       &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					cardID, err := idArg(p.Args, "id")
					if err != nil {
						return nil, err
					}
					card, err := r.Cards.EditCard(cardID, userID, services.EditCardInput{
						Title:       optionalStringArg(p.Args, "title"),
						Description: optionalStringArg(p.Args, "description"),
						DueDate:     optionalStringArg(p.Args, "duedate"),
						Color:       optionalStringArg(p.Args, "color"),
					})
					if err != nil {
						return nil, sanitizeErr("editCard", err)
					}
					return *card, nil
				},
			},
			"updateCardType": &graphql.Field{
				Type: graphql.NewNonNull(cardType),
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"type": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					cardID, err := idArg(p.Args, "id")
					if err != nil {
						return nil, err
					}
					newType, _ := stringArg(p.Args, "type")
					card, err := r.Cards.UpdateCardType(cardID, userID, newType)
					if err != nil {
						return nil, sanitizeErr("updateCardType", err)
					}
					return *card, nil
				},
			},
			"createProject": &graphql.Field{
				Type: graphql.NewNonNull(projectType),
				Args: graphql.FieldConfigArgument{
					"title": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					title, _ := stringArg(p.Args, "title")
					project, err := r.Projects.CreateProject(title, userID)
					if err != nil {
						return nil, sanitizeErr("createProject", err)
					}
					return *project, nil
				},
			},
			"editProject": &graphql.Field{
				Type: graphql.NewNonNull(projectType),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"title": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					projectID, err := idArg(p.Args, "id")
					if err != nil {
						return nil, err
					}
					title, _ := stringArg(p.Args, "title")
					project, err := r.Projects.EditProject(projectID, userID, title)
					if err != nil {
						return nil, sanitizeErr("editProject", err)
					}
					return *project, nil
				},
			},
			"deleteProject": &graphql.Field{
				Type: projectType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, err := currentUser(p)
					if err != nil {
						return nil, err
					}
					projectID, err := idArg(p.Args, "id")
					if err != nil {
						return nil, err
					}
					project, err := r.Projects.DeleteProject(projectID, userID)
					if err != nil {
						return nil, sanitizeErr("deleteProject", err)
					}
					return *project, nil
				},
			},
		},
	})

	subscriptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"cardCreated": cardSubscriptionField(r, cardType, pubsub.TopicCardCreated),
			"cardUpdated": cardSubscriptionField(r, cardType, pubsub.TopicCardUpdated),
			"cardDeleted": cardSubscriptionField(r, cardType, pubsub.TopicCardDeleted),
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        queryType,
		Mutation:     mutationType,
		Subscription: subscriptionType,
	})
}

// cardSubscriptionField wires one card change topic into a subscription
// field. The stream starts at subscribe time; there is no replay for events
// published before it.
func cardSubscriptionField(r *Resolver, cardType *graphql.Object, topic string) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(cardType),
		Args: graphql.FieldConfigArgument{
			"projectId": &graphql.ArgumentConfig{Type: graphql.ID},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return p.Source, nil
		},
		Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
			projectID, err := optionalIDArg(p.Args, "projectId")
			if err != nil {
				return nil, err
			}

			sub := r.Broker.Subscribe(topic)
			out := make(chan interface{})

			go func() {
				defer sub.Close()
				defer close(out)
				for {
					select {
					case <-p.Context.Done():
						return
					case ev, ok := <-sub.C():
						if !ok {
							return
						}
						card, ok := ev.Payload.(models.Card)
						if !ok {
							continue
						}
						if projectID != nil && card.ProjectID != *projectID {
							continue
						}
						select {
						case out <- card:
						case <-p.Context.Done():
							return
						}
					}
				}
			}()

			return out, nil
		},
	}
}
